package sqlite

import (
	"context"

	"github.com/medtrackhq/medtrack/internal/api/domain"
)

type medicationsRepo struct {
	db dbtx
}

const medicationColumns = `id, user_id, drug_name, rxcui, dosage, frequency, start_date, instructions, created_at, updated_at`

func scanMedication(row interface{ Scan(...any) error }) (domain.Medication, error) {
	var m domain.Medication
	err := row.Scan(&m.ID, &m.UserID, &m.DrugName, &m.Rxcui, &m.Dosage, &m.Frequency,
		&m.StartDate, &m.Instructions, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Medication{}, mapNotFound(err)
	}
	return m, nil
}

func (r *medicationsRepo) CreateMedication(ctx context.Context, m domain.Medication) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO medications (id, user_id, drug_name, rxcui, dosage, frequency, start_date, instructions, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		m.ID, m.UserID, m.DrugName, m.Rxcui, m.Dosage, m.Frequency, m.StartDate, m.Instructions)
	return err
}

func (r *medicationsRepo) GetMedicationByID(ctx context.Context, id string) (domain.Medication, error) {
	return scanMedication(r.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id))
}

func (r *medicationsRepo) ListMedicationsByUser(ctx context.Context, userID string) ([]domain.Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meds := make([]domain.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *medicationsRepo) UpdateMedication(ctx context.Context, m domain.Medication) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE medications SET dosage = ?, frequency = ?, start_date = ?, instructions = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		m.Dosage, m.Frequency, m.StartDate, m.Instructions, m.ID)
	return err
}

func (r *medicationsRepo) DeleteMedication(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id)
	return err
}

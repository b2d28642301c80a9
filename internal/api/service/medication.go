package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/domain"
	"github.com/medtrackhq/medtrack/internal/api/store"
	"github.com/medtrackhq/medtrack/pkg/idx"
)

var (
	ErrDrugNameRequired = errors.New("drug_name_required")
	ErrInvalidStartDate = errors.New("invalid_start_date")
)

// MedicationService owns the per-user medication list. Every mutating
// operation checks ownership first: touching another user's entry is
// ErrForbidden, regardless of whether the caller could know it exists.
type MedicationService struct {
	Store store.Store
}

// MedicationCreate carries the fields accepted when adding an entry.
type MedicationCreate struct {
	DrugName     string
	Rxcui        string
	Dosage       string
	Frequency    string
	StartDate    string
	Instructions string
}

// MedicationUpdate carries a partial update: nil fields stay untouched.
// Drug name and rxcui are fixed at creation.
type MedicationUpdate struct {
	Dosage       *string
	Frequency    *string
	StartDate    *string
	Instructions *string
}

func validStartDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

func (s *MedicationService) List(ctx context.Context, userID string) ([]domain.Medication, error) {
	return s.Store.Medications().ListMedicationsByUser(ctx, userID)
}

func (s *MedicationService) Create(ctx context.Context, userID string, in MedicationCreate) (domain.Medication, error) {
	if strings.TrimSpace(in.DrugName) == "" {
		return domain.Medication{}, ErrDrugNameRequired
	}
	if !validStartDate(in.StartDate) {
		return domain.Medication{}, ErrInvalidStartDate
	}

	m := domain.Medication{
		ID:           idx.New().String(),
		UserID:       userID,
		DrugName:     strings.TrimSpace(in.DrugName),
		Rxcui:        strings.TrimSpace(in.Rxcui),
		Dosage:       strings.TrimSpace(in.Dosage),
		Frequency:    strings.TrimSpace(in.Frequency),
		StartDate:    in.StartDate,
		Instructions: strings.TrimSpace(in.Instructions),
	}
	if err := s.Store.Medications().CreateMedication(ctx, m); err != nil {
		return domain.Medication{}, err
	}

	return s.Store.Medications().GetMedicationByID(ctx, m.ID)
}

// Update applies the provided fields onto an owned entry. Blank strings are
// treated like absent fields, matching how the frontend clears its form.
func (s *MedicationService) Update(ctx context.Context, userID, medicationID string, in MedicationUpdate) (domain.Medication, error) {
	existing, err := s.owned(ctx, userID, medicationID)
	if err != nil {
		return domain.Medication{}, err
	}

	if in.Dosage != nil && strings.TrimSpace(*in.Dosage) != "" {
		existing.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.Frequency != nil && strings.TrimSpace(*in.Frequency) != "" {
		existing.Frequency = strings.TrimSpace(*in.Frequency)
	}
	if in.StartDate != nil {
		if !validStartDate(*in.StartDate) {
			return domain.Medication{}, ErrInvalidStartDate
		}
		existing.StartDate = *in.StartDate
	}
	if in.Instructions != nil && strings.TrimSpace(*in.Instructions) != "" {
		existing.Instructions = strings.TrimSpace(*in.Instructions)
	}

	if err := s.Store.Medications().UpdateMedication(ctx, existing); err != nil {
		return domain.Medication{}, err
	}

	return s.Store.Medications().GetMedicationByID(ctx, medicationID)
}

func (s *MedicationService) Delete(ctx context.Context, userID, medicationID string) error {
	if _, err := s.owned(ctx, userID, medicationID); err != nil {
		return err
	}
	return s.Store.Medications().DeleteMedication(ctx, medicationID)
}

// owned fetches a medication and enforces that the caller owns it.
func (s *MedicationService) owned(ctx context.Context, userID, medicationID string) (domain.Medication, error) {
	m, err := s.Store.Medications().GetMedicationByID(ctx, medicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Medication{}, ErrNotFound
		}
		return domain.Medication{}, err
	}
	if m.UserID != userID {
		return domain.Medication{}, ErrForbidden
	}
	return m, nil
}

package sqlite

import (
	"context"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/domain"
	"github.com/medtrackhq/medtrack/internal/api/store"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) UpsertResetToken(ctx context.Context, t domain.ResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (id, user_id, token_hash, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, 0, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id) DO UPDATE SET
		   id = excluded.id,
		   token_hash = excluded.token_hash,
		   expires_at = excluded.expires_at,
		   used = 0,
		   created_at = CURRENT_TIMESTAMP`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC())
	return err
}

func (r *resetTokensRepo) GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error) {
	var t domain.ResetToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, used, created_at
		 FROM reset_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if err != nil {
		return domain.ResetToken{}, mapNotFound(err)
	}
	return t, nil
}

// MarkResetTokenUsed flips the used flag. The WHERE used = 0 guard makes the
// flip atomic: of two racing consumers only one sees a row change.
func (r *resetTokensRepo) MarkResetTokenUsed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1 WHERE id = ? AND used = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

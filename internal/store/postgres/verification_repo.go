package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dulif-backend/internal/domain"
)

type VerificationRepo struct {
	db *sql.DB
}

func NewVerificationRepo(db *sql.DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

var _ domain.VerificationRepository = (*VerificationRepo)(nil)

func (r *VerificationRepo) Upsert(ctx context.Context, v *domain.VerificationCode) error {
	v.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (email, code, attempts, remember_me, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			code = EXCLUDED.code,
			attempts = EXCLUDED.attempts,
			remember_me = EXCLUDED.remember_me,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
	`, v.Email, v.Code, v.Attempts, v.RememberMe, v.ExpiresAt, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert verification code: %w", err)
	}
	return nil
}

func (r *VerificationRepo) Get(ctx context.Context, email string) (*domain.VerificationCode, error) {
	v := &domain.VerificationCode{}
	err := r.db.QueryRowContext(ctx, `
		SELECT email, code, attempts, remember_me, expires_at, created_at
		FROM verification_codes
		WHERE email = $1
	`, email).Scan(
		&v.Email,
		&v.Code,
		&v.Attempts,
		&v.RememberMe,
		&v.ExpiresAt,
		&v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	return v, nil
}

func (r *VerificationRepo) IncrementAttempts(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes SET attempts = attempts + 1 WHERE email = $1
	`, email)
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

func (r *VerificationRepo) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type otpsRepo struct {
	db *sql.DB
}

func (r *otpsRepo) CreateOtp(ctx context.Context, otp domain.OneTimePassword) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otps (id, account_id, password, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		otp.ID, otp.AccountID, otp.Password, otp.ExpiresAt, otp.CreatedAt)
	return mapConflict(err)
}

func (r *otpsRepo) GetOtpByID(ctx context.Context, id string) (domain.OneTimePassword, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, password, expires_at, created_at FROM otps WHERE id = ?`, id)

	var otp domain.OneTimePassword
	err := row.Scan(&otp.ID, &otp.AccountID, &otp.Password, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		return domain.OneTimePassword{}, mapNotFound(err)
	}
	return otp, nil
}

func (r *otpsRepo) DeleteOtp(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE id = ?`, id)
	return err
}

func (r *otpsRepo) DeleteExpiredOtps(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE expires_at <= ?`, now)
	return err
}

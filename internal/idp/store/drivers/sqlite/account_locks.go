package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type accountLocksRepo struct {
	db *sql.DB
}

func (r *accountLocksRepo) CreateAccountLock(ctx context.Context, l domain.AccountLock) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_locks (id, account_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		l.ID, l.AccountID, l.ExpiresAt, l.CreatedAt)
	return mapConflict(err)
}

func (r *accountLocksRepo) GetActiveLockByAccountID(ctx context.Context, accountID string, now time.Time) (domain.AccountLock, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, expires_at, created_at
		 FROM account_locks
		 WHERE account_id = ? AND expires_at > ?
		 ORDER BY expires_at DESC
		 LIMIT 1`, accountID, now)

	var l domain.AccountLock
	err := row.Scan(&l.ID, &l.AccountID, &l.ExpiresAt, &l.CreatedAt)
	if err != nil {
		return domain.AccountLock{}, mapNotFound(err)
	}
	return l, nil
}

func (r *accountLocksRepo) DeleteExpiredAccountLocks(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM account_locks WHERE expires_at <= ?`, now)
	return err
}

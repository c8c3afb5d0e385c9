package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type accountsRepo struct {
	db *sql.DB
}

const accountColumns = `id, external_id, email, roles, permissions, active, deleted, created_at, updated_at`

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByExternalID(ctx context.Context, externalID string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE external_id = ? AND external_id <> ''`, externalID)
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, external_id, email, roles, permissions, active, deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ExternalID, a.Email, joinList(a.Roles), joinList(a.Permissions),
		a.Active, a.Deleted, a.CreatedAt, a.UpdatedAt)
	return mapConflict(err)
}

func (r *accountsRepo) UpdateAccountActive(ctx context.Context, accountID string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) MarkAccountDeleted(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET deleted = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                  domain.Account
		roles, permissions string
	)
	err := row.Scan(&a.ID, &a.ExternalID, &a.Email, &roles, &permissions,
		&a.Active, &a.Deleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	a.Roles = splitAndFilter(roles)
	a.Permissions = splitAndFilter(permissions)
	return a, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type appsRepo struct {
	db *sql.DB
}

func (r *appsRepo) GetAppByID(ctx context.Context, id string) (domain.App, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, account_id, active, deleted, created_at, updated_at
		 FROM apps WHERE id = ?`, id)

	var a domain.App
	err := row.Scan(&a.ID, &a.Name, &a.AccountID, &a.Active, &a.Deleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.App{}, mapNotFound(err)
	}
	return a, nil
}

func (r *appsRepo) CreateApp(ctx context.Context, a domain.App) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO apps (id, name, account_id, active, deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.AccountID, a.Active, a.Deleted, a.CreatedAt, a.UpdatedAt)
	return mapConflict(err)
}

func (r *appsRepo) MarkAppDeleted(ctx context.Context, appID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE apps SET deleted = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), appID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type apiKeysRepo struct {
	db *sql.DB
}

func (r *apiKeysRepo) CreateApiKey(ctx context.Context, k domain.ApiKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, app_id, key_hash, expires_at, deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		k.ID, k.AppID, k.KeyHash, mapOptionalTime(k.ExpiresAt), k.Deleted, k.CreatedAt)
	return mapConflict(err)
}

func (r *apiKeysRepo) GetApiKeyByHash(ctx context.Context, hash string) (domain.ApiKey, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, app_id, key_hash, expires_at, deleted, created_at
		 FROM api_keys WHERE key_hash = ? AND deleted = 0`, hash)
	return scanApiKey(row.Scan)
}

func (r *apiKeysRepo) ListApiKeysByAppID(ctx context.Context, appID string) ([]domain.ApiKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, app_id, key_hash, expires_at, deleted, created_at
		 FROM api_keys WHERE app_id = ? AND deleted = 0
		 ORDER BY created_at DESC`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.ApiKey
	for rows.Next() {
		k, err := scanApiKey(rows.Scan)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeysRepo) MarkApiKeyDeleted(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE api_keys SET deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *apiKeysRepo) DeleteExpiredApiKeys(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	return err
}

func scanApiKey(scan func(dest ...any) error) (domain.ApiKey, error) {
	var (
		k         domain.ApiKey
		expiresAt sql.NullTime
	)
	err := scan(&k.ID, &k.AppID, &k.KeyHash, &expiresAt, &k.Deleted, &k.CreatedAt)
	if err != nil {
		return domain.ApiKey{}, mapNotFound(err)
	}
	k.ExpiresAt = mapNullTimePtr(expiresAt)
	return k, nil
}

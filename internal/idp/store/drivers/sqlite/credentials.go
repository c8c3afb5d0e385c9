package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type credentialsRepo struct {
	db *sql.DB
}

const credentialColumns = `id, account_id, identifier, password_salt, password_hash,
	password_version, password_updated_at, totp_secret, created_at, updated_at`

func (r *credentialsRepo) GetCredentialsByIdentifier(ctx context.Context, identifier string) (domain.Credentials, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE identifier = ?`, identifier)
	return scanCredentials(row)
}

func (r *credentialsRepo) GetCredentialsByAccountID(ctx context.Context, accountID string) (domain.Credentials, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE account_id = ?`, accountID)
	return scanCredentials(row)
}

func (r *credentialsRepo) CreateCredentials(ctx context.Context, c domain.Credentials) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, account_id, identifier, password_salt, password_hash,
		 password_version, password_updated_at, totp_secret, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AccountID, c.Identifier, c.Password.Salt, c.Password.Hash,
		c.PasswordVersion, c.PasswordUpdatedAt, c.TotpSecret, c.CreatedAt, c.UpdatedAt)
	return mapConflict(err)
}

func (r *credentialsRepo) ReplacePassword(ctx context.Context, credentialsID string, password domain.HashedPassword, version int) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials
		 SET password_salt = ?, password_hash = ?, password_version = ?,
		     password_updated_at = ?, updated_at = ?
		 WHERE id = ?`,
		password.Salt, password.Hash, version, now, now, credentialsID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *credentialsRepo) SetTotpSecret(ctx context.Context, credentialsID string, secret string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET totp_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), credentialsID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanCredentials(row *sql.Row) (domain.Credentials, error) {
	var c domain.Credentials
	err := row.Scan(&c.ID, &c.AccountID, &c.Identifier, &c.Password.Salt, &c.Password.Hash,
		&c.PasswordVersion, &c.PasswordUpdatedAt, &c.TotpSecret, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Credentials{}, mapNotFound(err)
	}
	return c, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type accountTokensRepo struct {
	db *sql.DB
}

func (r *accountTokensRepo) CreateAccountToken(ctx context.Context, t domain.AccountToken) error {
	info, err := encodeMap(t.AdditionalInfo)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO account_tokens (id, token, account_id, expires_at, additional_info, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Token, t.AssociatedAccountID, t.ExpiresAt, info, t.CreatedAt)
	return mapConflict(err)
}

func (r *accountTokensRepo) GetAccountTokenByToken(ctx context.Context, token string) (domain.AccountToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, token, account_id, expires_at, additional_info, created_at
		 FROM account_tokens WHERE token = ?`, token)

	var (
		t   domain.AccountToken
		raw string
	)
	err := row.Scan(&t.ID, &t.Token, &t.AssociatedAccountID, &t.ExpiresAt, &raw, &t.CreatedAt)
	if err != nil {
		return domain.AccountToken{}, mapNotFound(err)
	}

	t.AdditionalInfo, err = decodeMap(raw)
	if err != nil {
		return domain.AccountToken{}, err
	}
	return t, nil
}

func (r *accountTokensRepo) DeleteAccountToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM account_tokens WHERE id = ?`, id)
	return err
}

func (r *accountTokensRepo) DeleteExpiredAccountTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM account_tokens WHERE expires_at <= ?`, now)
	return err
}

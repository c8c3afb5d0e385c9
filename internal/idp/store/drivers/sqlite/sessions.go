package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	data, err := encodeMap(s.Data)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, session_token, account_id, expires_at, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.SessionToken, s.AccountID, s.ExpiresAt, data, s.CreatedAt)
	return mapConflict(err)
}

func (r *sessionsRepo) GetSessionByToken(ctx context.Context, token string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, session_token, account_id, expires_at, data, created_at
		 FROM sessions WHERE session_token = ?`, token)

	var (
		s   domain.Session
		raw string
	)
	err := row.Scan(&s.ID, &s.SessionToken, &s.AccountID, &s.ExpiresAt, &raw, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.Data, err = decodeMap(raw)
	if err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r *sessionsRepo) DeleteSessionByToken(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_token = ?`, token)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	return err
}

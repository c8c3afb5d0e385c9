package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tokensquare/guardian/internal/idp/domain"
)

// exchangeAttemptsRepo only ever inserts and selects. The audit trail is
// append-only.
type exchangeAttemptsRepo struct {
	db *sql.DB
}

func (r *exchangeAttemptsRepo) SaveExchangeAttempt(ctx context.Context, a domain.ExchangeAttempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_attempts (id, entity_id, exchange_from, exchange_to, successful, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.EntityID, a.ExchangeFrom, a.ExchangeTo, a.Successful, a.Timestamp)
	return mapConflict(err)
}

func (r *exchangeAttemptsRepo) FindAttemptsByEntitySince(ctx context.Context, entityID string, since time.Time) ([]domain.ExchangeAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_id, exchange_from, exchange_to, successful, timestamp
		 FROM exchange_attempts
		 WHERE entity_id = ? AND timestamp >= ?
		 ORDER BY timestamp ASC`, entityID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.ExchangeAttempt
	for rows.Next() {
		var a domain.ExchangeAttempt
		if err := rows.Scan(&a.ID, &a.EntityID, &a.ExchangeFrom, &a.ExchangeTo, &a.Successful, &a.Timestamp); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

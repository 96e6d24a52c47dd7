package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/flicks-picks/internal/domain"
)

// SessionsRepository persists server-side browser sessions.
type SessionsRepository struct {
	pool *pgxpool.Pool
}

// Get returns a live session. Expired rows count as missing.
func (r *SessionsRepository) Get(ctx context.Context, id string) (domain.WebSession, error) {
	const query = `
        SELECT id, data, expires_at, created_at, updated_at
        FROM web_sessions
        WHERE id = $1 AND expires_at > now()
    `
	var s domain.WebSession
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Data, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WebSession{}, ErrNotFound
		}
		return domain.WebSession{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// Upsert stores data under id with the given lifetime and reports whether the row
// was newly created.
func (r *SessionsRepository) Upsert(ctx context.Context, id, data string, ttl time.Duration) (bool, error) {
	const query = `
        INSERT INTO web_sessions (id, data, expires_at)
        VALUES ($1, $2, now() + $3::interval)
        ON CONFLICT (id)
        DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = now()
        RETURNING (xmax = 0) AS inserted
    `
	var inserted bool
	interval := fmt.Sprintf("%d milliseconds", ttl.Milliseconds())
	if err := r.pool.QueryRow(ctx, query, id, data, interval).Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert session: %w", err)
	}
	return inserted, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *SessionsRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions past their expiry and returns how many went.
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM web_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/flicks-picks/internal/repository"
)

// PostgresBackend stores sessions in the web_sessions table.
type PostgresBackend struct {
	sessions *repository.SessionsRepository
	logger   *logrus.Logger
}

// NewPostgresBackend wraps the sessions repository.
func NewPostgresBackend(repo *repository.SessionsRepository, logger *logrus.Logger) *PostgresBackend {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PostgresBackend{sessions: repo, logger: logger}
}

func (b *PostgresBackend) Load(ctx context.Context, id string) (string, error) {
	s, err := b.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return s.Data, nil
}

func (b *PostgresBackend) Save(ctx context.Context, id, data string, ttl time.Duration) error {
	_, err := b.sessions.Upsert(ctx, id, data, ttl)
	return err
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	return b.sessions.Delete(ctx, id)
}

// Sweep deletes expired rows every interval until ctx is done.
func (b *PostgresBackend) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.sessions.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.logger.WithError(err).Warn("session: sweep failed")
				}
				continue
			}
			if n > 0 {
				b.logger.WithField("purged", n).Debug("session: expired sessions purged")
			}
		}
	}
}

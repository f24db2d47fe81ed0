package postgres

import (
	"context"
	"errors"

	"github.com/lib/pq"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

// TryRunExclusive takes a session advisory lock on a dedicated connection so that
// two overlapping cron invocations never process the same batch twice.
// fn itself uses the pool, not the locked connection.
func (c *Client) TryRunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	conn, err := c.db.Connx(ctx)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Connexion à la base de données impossible").
			Mark(ierr.ErrDatabase)
	}
	defer conn.Close()

	var ok bool
	if err := conn.GetContext(ctx, &ok, `SELECT pg_try_advisory_lock(hashtext($1))`, key); err != nil {
		if isLockTimeoutError(err) {
			return false, nil
		}
		return false, ierr.WithError(err).
			WithHint("Verrouillage impossible").
			WithReportableDetails(map[string]any{"key": key}).
			Mark(ierr.ErrDatabase)
	}
	if !ok {
		c.logger.Infow("advisory lock already held, skipping", "key", key)
		return false, nil
	}

	defer func() {
		// Released explicitly so the pooled connection does not keep it.
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			c.logger.Errorw("failed to release advisory lock", "key", key, "error", err)
		}
	}()

	return true, fn(ctx)
}

// isLockTimeoutError matches 55P03 lock_not_available
func isLockTimeoutError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "55P03"
	}
	return false
}

// IsUniqueViolation matches 23505 unique_violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

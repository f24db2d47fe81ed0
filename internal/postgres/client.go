package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// IClient is what repositories and services depend on
type IClient interface {
	// Querier returns the transaction bound to ctx, or the pool
	Querier(ctx context.Context) Querier
	// WithTx runs fn in a transaction; nested calls reuse the outer one
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// TryRunExclusive runs fn only if no other process holds key.
	// It returns false without running fn when the key is taken.
	TryRunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}

type txKey struct{}

type Client struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewDB opens the pool and waits for the database to answer
func NewDB(cfg *config.Configuration, log *logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Connexion à la base de données impossible").
			Mark(ierr.ErrDatabase)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.Postgres.ConnectTimeout
	err = backoff.RetryNotify(db.Ping, b, func(err error, wait time.Duration) {
		log.Warnw("database not ready, retrying", "error", err, "wait", wait)
	})
	if err != nil {
		_ = db.Close()
		return nil, ierr.WithError(err).
			WithHint("Base de données injoignable").
			Mark(ierr.ErrDatabase)
	}
	log.Infow("connected to postgres", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)
	return db, nil
}

func NewClient(db *sqlx.DB, log *logger.Logger) IClient {
	return &Client{db: db, logger: log}
}

// ContextWithTx binds tx to ctx so Querier picks it up
func ContextWithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// WithoutTx returns ctx detached from any bound transaction
func WithoutTx(ctx context.Context) context.Context {
	if !InTx(ctx) {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, (*sqlx.Tx)(nil))
}

// InTx reports whether ctx carries a transaction
func InTx(ctx context.Context) bool {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx != nil
}

// TxFromContext returns the transaction stored in ctx, if any
func (c *Client) TxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

func (c *Client) Querier(ctx context.Context) Querier {
	if tx := c.TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.db
}

func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if c.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Impossible de démarrer la transaction").
			Mark(ierr.ErrDatabase)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Errorw("transaction rollback failed", "error", rbErr)
			}
			return
		}
		if cmErr := tx.Commit(); cmErr != nil {
			err = ierr.WithError(cmErr).
				WithHint("Impossible de valider la transaction").
				Mark(ierr.ErrDatabase)
		}
	}()

	return fn(ContextWithTx(ctx, tx))
}

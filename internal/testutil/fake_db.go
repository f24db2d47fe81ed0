package testutil

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"

	db "github.com/tutordesk/tutordesk/internal/postgres"
)

// FakeDB satisfies postgres.IClient for services running on in-memory stores.
// Transactions bind a placeholder tx to ctx and run fn; the stores provide their own atomicity.
type FakeDB struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewFakeDB() *FakeDB {
	return &FakeDB{held: map[string]bool{}}
}

func (f *FakeDB) Querier(context.Context) db.Querier {
	return nil
}

func (f *FakeDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.InTx(ctx) {
		return fn(ctx)
	}
	return fn(db.ContextWithTx(ctx, &sqlx.Tx{}))
}

func (f *FakeDB) TryRunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	f.mu.Lock()
	if f.held[key] {
		f.mu.Unlock()
		return false, nil
	}
	f.held[key] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.held, key)
		f.mu.Unlock()
	}()
	return true, fn(ctx)
}

// Hold marks key as taken by another process
func (f *FakeDB) Hold(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held[key] = true
}

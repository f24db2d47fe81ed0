package testutil

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/domain/audit"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/types"
)

// InMemoryAuditStore implements audit.Repository. Fail makes Create error out.
type InMemoryAuditStore struct {
	mu      sync.Mutex
	entries []*audit.Entry
	txBound int
	Fail    bool
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{}
}

func (s *InMemoryAuditStore) Create(ctx context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if postgres.InTx(ctx) {
		s.txBound++
	}
	if s.Fail {
		return ierr.NewError("audit store unavailable").Mark(ierr.ErrDatabase)
	}
	cp := *e
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryAuditStore) List(_ context.Context, filter *audit.Filter) ([]*audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := lo.Filter(s.entries, func(e *audit.Entry, _ int) bool {
		if filter == nil {
			return true
		}
		if filter.Source != "" && e.Source != filter.Source {
			return false
		}
		if filter.Event != "" && e.Event != filter.Event {
			return false
		}
		if filter.EntityID != "" && e.Payload["procedure_id"] != filter.EntityID && e.Payload["client_id"] != filter.EntityID {
			return false
		}
		return true
	})
	return lo.Reverse(out), nil
}

// Events returns recorded event names in insertion order
func (s *InMemoryAuditStore) Events() []types.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.entries, func(e *audit.Entry, _ int) types.AuditEvent { return e.Event })
}

// TxBoundWrites counts Create calls that arrived inside a transaction
func (s *InMemoryAuditStore) TxBoundWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txBound
}

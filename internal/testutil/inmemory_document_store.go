package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/domain/document"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

// InMemoryDocumentStore implements document.Repository
type InMemoryDocumentStore struct {
	*InMemoryStore[*document.Document]
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{InMemoryStore: NewInMemoryStore[*document.Document]()}
}

func (s *InMemoryDocumentStore) Create(ctx context.Context, d *document.Document) error {
	cp := *d
	return s.InMemoryStore.Create(ctx, d.ID, &cp)
}

func (s *InMemoryDocumentStore) Get(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("document not found").
			WithHint("Document non trouvé").
			Mark(ierr.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryDocumentStore) ListByProcedures(ctx context.Context, procedureIDs []string) ([]*document.Document, error) {
	items := s.Find(ctx, func(d *document.Document) bool { return lo.Contains(procedureIDs, d.ProcedureID) },
		func(a, b *document.Document) bool { return a.CreatedAt.Before(b.CreatedAt) })
	return lo.Map(items, func(d *document.Document, _ int) *document.Document {
		cp := *d
		return &cp
	}), nil
}

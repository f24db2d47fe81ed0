package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// InMemoryProcedureStore implements procedure.Repository, seeded with the
// catalog the migration inserts
type InMemoryProcedureStore struct {
	*InMemoryStore[*procedure.Procedure]
	types []*procedure.ProcedureType

	historyMu sync.Mutex
	history   []*procedure.StatusHistory
	// typeLookups counts GetType calls, for cache tests
	typeLookups int
}

func NewInMemoryProcedureStore() *InMemoryProcedureStore {
	return &InMemoryProcedureStore{
		InMemoryStore: NewInMemoryStore[*procedure.Procedure](),
		types: []*procedure.ProcedureType{
			{ID: "ptype_info_collection", Code: types.ProcedureTypeInfoCollection, Label: "Collecte d'informations"},
			{ID: "ptype_document_request", Code: types.ProcedureTypeDocumentRequest, Label: "Demande de documents"},
			{ID: "ptype_document_delivery", Code: types.ProcedureTypeDocumentDelivery, Label: "Envoi de documents"},
			{ID: "ptype_contracting", Code: types.ProcedureTypeContracting, Label: "Contractualisation"},
			{ID: "ptype_renewal_wish", Code: types.ProcedureTypeRenewalWish, Label: "Souhait de renouvellement"},
		},
	}
}

func copyProcedure(p *procedure.Procedure) *procedure.Procedure {
	if p == nil {
		return nil
	}
	cp := *p
	cp.UploadTokenExpiresAt = copyTime(p.UploadTokenExpiresAt)
	cp.DownloadTokenExpiresAt = copyTime(p.DownloadTokenExpiresAt)
	return &cp
}

func (s *InMemoryProcedureStore) TypeLookups() int {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	return s.typeLookups
}

// RemoveType drops a catalog entry so callers can exercise the not-found path
func (s *InMemoryProcedureStore) RemoveType(code types.ProcedureTypeCode) {
	s.types = lo.Filter(s.types, func(pt *procedure.ProcedureType, _ int) bool { return pt.Code != code })
}

func (s *InMemoryProcedureStore) GetType(_ context.Context, code types.ProcedureTypeCode) (*procedure.ProcedureType, error) {
	s.historyMu.Lock()
	s.typeLookups++
	s.historyMu.Unlock()
	pt, ok := lo.Find(s.types, func(pt *procedure.ProcedureType) bool { return pt.Code == code })
	if !ok {
		return nil, procedure.ErrProcedureTypeNotFound(code)
	}
	cp := *pt
	return &cp, nil
}

func (s *InMemoryProcedureStore) ListTypes(_ context.Context) ([]*procedure.ProcedureType, error) {
	return lo.Map(s.types, func(pt *procedure.ProcedureType, _ int) *procedure.ProcedureType {
		cp := *pt
		return &cp
	}), nil
}

func (s *InMemoryProcedureStore) Create(ctx context.Context, p *procedure.Procedure) error {
	return s.InMemoryStore.Create(ctx, p.ID, copyProcedure(p))
}

func (s *InMemoryProcedureStore) Get(ctx context.Context, id string) (*procedure.Procedure, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, procedure.ErrProcedureNotFound(id)
	}
	return copyProcedure(p), nil
}

func (s *InMemoryProcedureStore) one(ctx context.Context, match func(*procedure.Procedure) bool, notFound func() error) (*procedure.Procedure, error) {
	items := s.Find(ctx, match, func(a, b *procedure.Procedure) bool { return a.CreatedAt.After(b.CreatedAt) })
	if len(items) == 0 {
		return nil, notFound()
	}
	return copyProcedure(items[0]), nil
}

func (s *InMemoryProcedureStore) GetByUploadToken(ctx context.Context, token string) (*procedure.Procedure, error) {
	return s.one(ctx, func(p *procedure.Procedure) bool { return token != "" && p.UploadToken == token }, types.ErrInvalidToken)
}

func (s *InMemoryProcedureStore) GetByDownloadToken(ctx context.Context, token string) (*procedure.Procedure, error) {
	return s.one(ctx, func(p *procedure.Procedure) bool { return token != "" && p.DownloadToken == token }, types.ErrInvalidToken)
}

func (s *InMemoryProcedureStore) GetBySignatureRequestID(ctx context.Context, id string) (*procedure.Procedure, error) {
	return s.one(ctx, func(p *procedure.Procedure) bool { return id != "" && p.SignatureRequestID == id }, func() error {
		return ierr.NewError("no procedure for signature request").Mark(ierr.ErrNotFound)
	})
}

func (s *InMemoryProcedureStore) ListByClient(ctx context.Context, clientID string) ([]*procedure.Procedure, error) {
	items := s.Find(ctx, func(p *procedure.Procedure) bool { return p.ClientID == clientID },
		func(a, b *procedure.Procedure) bool { return a.CreatedAt.After(b.CreatedAt) })
	return lo.Map(items, func(p *procedure.Procedure, _ int) *procedure.Procedure { return copyProcedure(p) }), nil
}

func (s *InMemoryProcedureStore) GetLatestForClient(ctx context.Context, clientID string, code types.ProcedureTypeCode, statuses []types.ProcedureStatus) (*procedure.Procedure, error) {
	return s.one(ctx, func(p *procedure.Procedure) bool {
		return p.ClientID == clientID && p.TypeCode == code && lo.Contains(statuses, p.Status)
	}, func() error {
		return ierr.NewError("no open procedure").
			WithHint("Aucune procédure en cours").
			Mark(ierr.ErrNotFound)
	})
}

func (s *InMemoryProcedureStore) UpdateStatus(ctx context.Context, p *procedure.Procedure, from types.ProcedureStatus) error {
	err := s.Mutate(ctx, p.ID, func(stored *procedure.Procedure) (*procedure.Procedure, error) {
		if stored.Status != from {
			return nil, ierr.NewError("procedure status changed concurrently").
				WithHint("La procédure a été modifiée entre-temps").
				Mark(ierr.ErrVersionConflict)
		}
		cp := copyProcedure(stored)
		cp.Status = p.Status
		cp.SignatureRequestID = p.SignatureRequestID
		cp.UpdatedAt = time.Now().UTC()
		return cp, nil
	})
	if err == errItemNotFound {
		return procedure.ErrProcedureNotFound(p.ID)
	}
	return err
}

func (s *InMemoryProcedureStore) setToken(ctx context.Context, id string, fn func(*procedure.Procedure)) error {
	err := s.Mutate(ctx, id, func(stored *procedure.Procedure) (*procedure.Procedure, error) {
		cp := copyProcedure(stored)
		fn(cp)
		return cp, nil
	})
	if err == errItemNotFound {
		return procedure.ErrProcedureNotFound(id)
	}
	return err
}

func (s *InMemoryProcedureStore) SetUploadToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.setToken(ctx, id, func(p *procedure.Procedure) {
		p.UploadToken = token
		p.UploadTokenExpiresAt = &expiresAt
	})
}

func (s *InMemoryProcedureStore) SetDownloadToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.setToken(ctx, id, func(p *procedure.Procedure) {
		p.DownloadToken = token
		p.DownloadTokenExpiresAt = &expiresAt
	})
}

func (s *InMemoryProcedureStore) AppendHistory(_ context.Context, h *procedure.StatusHistory) error {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	cp := *h
	s.history = append(s.history, &cp)
	return nil
}

func (s *InMemoryProcedureStore) ListHistory(_ context.Context, procedureIDs []string) ([]*procedure.StatusHistory, error) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	out := lo.Filter(s.history, func(h *procedure.StatusHistory, _ int) bool {
		return lo.Contains(procedureIDs, h.ProcedureID)
	})
	return lo.Map(out, func(h *procedure.StatusHistory, _ int) *procedure.StatusHistory {
		cp := *h
		return &cp
	}), nil
}

// HistoryLabels returns the labels recorded for procedureID in order
func (s *InMemoryProcedureStore) HistoryLabels(procedureID string) []types.HistoryLabel {
	h, _ := s.ListHistory(context.Background(), []string{procedureID})
	return lo.Map(h, func(e *procedure.StatusHistory, _ int) types.HistoryLabel { return e.Label })
}

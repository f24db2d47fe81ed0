package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/document"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	"github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/types"
)

// ProcedureService owns procedure creation, status changes and the timeline.
// Orchestrators go through it so every transition is validated and recorded.
type ProcedureService interface {
	// Create persists a DRAFT procedure of code for the client
	Create(ctx context.Context, clientID string, code types.ProcedureTypeCode, recipientEmail string) (*procedure.Procedure, error)
	Get(ctx context.Context, id string) (*procedure.Procedure, error)
	ListForClient(ctx context.Context, clientID string) ([]*dto.ProcedureResponse, error)
	ListTypes(ctx context.Context) ([]*procedure.ProcedureType, error)
	// Transition moves p to status, then appends label to the timeline
	Transition(ctx context.Context, p *procedure.Procedure, to types.ProcedureStatus, label types.HistoryLabel, note string) error
	// AppendHistory writes a timeline entry; failures are logged only
	AppendHistory(ctx context.Context, procedureID string, label types.HistoryLabel, note string)
	Close(ctx context.Context, id string, req *dto.CloseProcedureRequest) (*procedure.Procedure, error)
}

type procedureService struct {
	ServiceParams
}

func NewProcedureService(params ServiceParams) ProcedureService {
	return &procedureService{ServiceParams: params}
}

func (s *procedureService) Create(ctx context.Context, clientID string, code types.ProcedureTypeCode, recipientEmail string) (*procedure.Procedure, error) {
	if _, err := s.ClientRepo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	pt, err := s.ProcedureRepo.GetType(ctx, code)
	if err != nil {
		return nil, err
	}

	p := procedure.New(clientID, pt, recipientEmail, s.now())
	if err := s.ProcedureRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	NewAuditService(s.ServiceParams).Record(ctx, types.AuditSourceProcedure, types.AuditEventProcedureCreated, map[string]any{
		"procedure_id": p.ID,
		"client_id":    clientID,
		"type":         code,
	})
	return p, nil
}

func (s *procedureService) Get(ctx context.Context, id string) (*procedure.Procedure, error) {
	return s.ProcedureRepo.Get(ctx, id)
}

func (s *procedureService) ListTypes(ctx context.Context) ([]*procedure.ProcedureType, error) {
	return s.ProcedureRepo.ListTypes(ctx)
}

func (s *procedureService) ListForClient(ctx context.Context, clientID string) ([]*dto.ProcedureResponse, error) {
	if _, err := s.ClientRepo.Get(ctx, clientID); err != nil {
		return nil, err
	}
	procedures, err := s.ProcedureRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(procedures) == 0 {
		return []*dto.ProcedureResponse{}, nil
	}

	ids := lo.Map(procedures, func(p *procedure.Procedure, _ int) string { return p.ID })

	var (
		history   []*procedure.StatusHistory
		documents []*document.Document
	)
	g := pool.New().WithErrors().WithContext(ctx)
	g.Go(func(ctx context.Context) error {
		var err error
		history, err = s.ProcedureRepo.ListHistory(ctx, ids)
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		documents, err = s.DocumentRepo.ListByProcedures(ctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	historyByProc := lo.GroupBy(history, func(h *procedure.StatusHistory) string { return h.ProcedureID })
	docsByProc := lo.GroupBy(documents, func(d *document.Document) string { return d.ProcedureID })

	return lo.Map(procedures, func(p *procedure.Procedure, _ int) *dto.ProcedureResponse {
		return &dto.ProcedureResponse{
			Procedure: p,
			History:   lo.Ternary(historyByProc[p.ID] != nil, historyByProc[p.ID], []*procedure.StatusHistory{}),
			Documents: lo.Ternary(docsByProc[p.ID] != nil, docsByProc[p.ID], []*document.Document{}),
		}
	}), nil
}

func (s *procedureService) Transition(ctx context.Context, p *procedure.Procedure, to types.ProcedureStatus, label types.HistoryLabel, note string) error {
	from := p.Status
	if err := p.TransitionTo(to); err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	if err := s.ProcedureRepo.UpdateStatus(ctx, p, from); err != nil {
		p.Status = from
		return err
	}

	s.Logger.WithContext(ctx).Infow("procedure status changed",
		"procedure_id", p.ID,
		"from", from,
		"to", to)
	if label != "" {
		s.AppendHistory(ctx, p.ID, label, note)
	}
	NewAuditService(s.ServiceParams).Record(ctx, types.AuditSourceProcedure, types.AuditEventStatusChanged, map[string]any{
		"procedure_id": p.ID,
		"client_id":    p.ClientID,
		"from":         from,
		"to":           to,
	})
	return nil
}

func (s *procedureService) AppendHistory(ctx context.Context, procedureID string, label types.HistoryLabel, note string) {
	h := procedure.NewStatusHistory(procedureID, label, note, s.now())
	if err := s.ProcedureRepo.AppendHistory(postgres.WithoutTx(ctx), h); err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to append procedure history",
			"procedure_id", procedureID,
			"label", label,
			"error", err)
	}
}

func (s *procedureService) Close(ctx context.Context, id string, req *dto.CloseProcedureRequest) (*procedure.Procedure, error) {
	if req == nil {
		req = &dto.CloseProcedureRequest{}
	}
	p, err := s.ProcedureRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Transition(ctx, p, types.ProcedureStatusClosed, types.HistoryLabelClosed, req.Note); err != nil {
		return nil, err
	}
	NewAuditService(s.ServiceParams).Record(ctx, types.AuditSourceProcedure, types.AuditEventProcedureClosed, map[string]any{
		"procedure_id": p.ID,
		"client_id":    p.ClientID,
	})
	return p, nil
}

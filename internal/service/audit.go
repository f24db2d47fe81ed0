package service

import (
	"context"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/audit"
	"github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/types"
)

// AuditService appends to the audit log. Record never fails the caller.
type AuditService interface {
	Record(ctx context.Context, source types.AuditSource, event types.AuditEvent, payload map[string]any)
	List(ctx context.Context, filter *audit.Filter) (*dto.ListAuditLogsResponse, error)
}

type auditService struct {
	ServiceParams
}

func NewAuditService(params ServiceParams) AuditService {
	return &auditService{ServiceParams: params}
}

func (s *auditService) Record(ctx context.Context, source types.AuditSource, event types.AuditEvent, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["actor"]; !ok {
		payload["actor"] = types.GetActor(ctx)
	}

	entry := &audit.Entry{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUDIT_LOG),
		Source:    source,
		Event:     event,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := s.AuditRepo.Create(postgres.WithoutTx(context.WithoutCancel(ctx)), entry); err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to write audit log",
			"source", source,
			"event", event,
			"error", err)
	}
}

func (s *auditService) List(ctx context.Context, filter *audit.Filter) (*dto.ListAuditLogsResponse, error) {
	if filter == nil {
		filter = &audit.Filter{}
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.QueryFilter.Validate(); err != nil {
		return nil, err
	}

	entries, err := s.AuditRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ListAuditLogsResponse{
		Items: entries,
		Pagination: types.PaginationResponse{
			Total:  len(entries),
			Limit:  filter.GetLimit(),
			Offset: filter.GetOffset(),
		},
	}, nil
}

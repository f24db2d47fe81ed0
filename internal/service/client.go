package service

import (
	"context"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

type ClientService interface {
	CreateClient(ctx context.Context, req *dto.CreateClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, id string) (*dto.ClientResponse, error)
	ListClients(ctx context.Context, filter *types.ClientFilter) (*dto.ListClientsResponse, error)
	UpdateClient(ctx context.Context, id string, req *dto.UpdateClientRequest) (*dto.ClientResponse, error)
	// PromoteClient turns a Prospect into a Client
	PromoteClient(ctx context.Context, id string) (*dto.ClientResponse, error)
	// SubmitContact records a public contact request as a new Prospect and tells the admin
	SubmitContact(ctx context.Context, req *dto.ContactRequest) (*dto.ClientResponse, error)
	ExportClients(ctx context.Context, filter *types.ClientFilter, w io.Writer) error
}

type clientService struct {
	ServiceParams
}

func NewClientService(params ServiceParams) ClientService {
	return &clientService{ServiceParams: params}
}

func (s *clientService) CreateClient(ctx context.Context, req *dto.CreateClientRequest) (*dto.ClientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := req.ToClient(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	NewAuditService(s.ServiceParams).Record(ctx, types.AuditSourceClient, types.AuditEventClientCreated, map[string]any{
		"client_id":   c.ID,
		"type_client": c.Type(),
	})
	return dto.NewClientResponse(c), nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*dto.ClientResponse, error) {
	c, err := s.ClientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewClientResponse(c), nil
}

func (s *clientService) ListClients(ctx context.Context, filter *types.ClientFilter) (*dto.ListClientsResponse, error) {
	if filter == nil {
		filter = types.NewClientFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	clients, err := s.ClientRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ClientRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListClientsResponse{
		Items: lo.Map(clients, func(c *client.Client, _ int) *dto.ClientResponse { return dto.NewClientResponse(c) }),
		Pagination: types.PaginationResponse{
			Total:  total,
			Limit:  filter.GetLimit(),
			Offset: filter.GetOffset(),
		},
	}, nil
}

func (s *clientService) UpdateClient(ctx context.Context, id string, req *dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.ClientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.ClientRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	NewAuditService(s.ServiceParams).Record(ctx, types.AuditSourceClient, types.AuditEventClientUpdated, map[string]any{
		"client_id": c.ID,
	})
	return dto.NewClientResponse(c), nil
}

func (s *clientService) PromoteClient(ctx context.Context, id string) (*dto.ClientResponse, error) {
	c, err := s.ClientRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == types.ClientStatusClient {
		return nil, ierr.NewError("client already promoted").
			WithHint("Ce contact est déjà client").
			WithReportableDetails(map[string]any{"client_id": id}).
			Mark(ierr.ErrInvalidOperation)
	}
	status := types.ClientStatusClient
	return s.UpdateClient(ctx, id, &dto.UpdateClientRequest{Status: &status})
}

func (s *clientService) SubmitContact(ctx context.Context, req *dto.ContactRequest) (*dto.ClientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	firstName, lastName := splitName(req.Name)
	now := s.now()
	c := &client.Client{
		ID: types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Identity: &client.Individual{
			FirstName: firstName,
			LastName:  lastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
		Status:    types.ClientStatusProspect,
		Notes:     req.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	if admin := s.Config.Notification.AdminEmail; admin != "" {
		result := s.Notifier.Notify(ctx, notification.TemplateContactReceived,
			notification.Recipient{Email: admin},
			map[string]any{
				"name":    req.Name,
				"email":   req.Email,
				"phone":   req.Phone,
				"message": req.Message,
			})
		if !result.Success {
			s.Logger.WithContext(ctx).Warnw("contact notification not delivered", "client_id", c.ID, "reason", result.Reason)
		}
	}

	NewAuditService(s.ServiceParams).Record(ctx, types.AuditSourceClient, types.AuditEventContactReceived, map[string]any{
		"client_id": c.ID,
		"email":     req.Email,
	})
	return dto.NewClientResponse(c), nil
}

func (s *clientService) ExportClients(ctx context.Context, filter *types.ClientFilter, w io.Writer) error {
	if filter == nil {
		filter = types.NewClientFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	filter.Limit = lo.ToPtr(types.MaxLimit)
	filter.Offset = lo.ToPtr(0)
	if err := filter.Validate(); err != nil {
		return err
	}

	rows := make([]*dto.ClientCSVRow, 0)
	for {
		page, err := s.ClientRepo.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, c := range page {
			rows = append(rows, dto.NewClientCSVRow(c))
		}
		if len(page) < filter.GetLimit() {
			break
		}
		filter.Offset = lo.ToPtr(filter.GetOffset() + len(page))
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return ierr.WithError(err).
			WithHint("Impossible de générer l'export").
			Mark(ierr.ErrInternal)
	}
	return nil
}

// splitName keeps the last word as the family name
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

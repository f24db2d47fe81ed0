package service

import (
	"context"
	"fmt"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

const infoFormPath = "/formulaire/informations"

// InfoCollectionService sends the onboarding form and records the client's answers
type InfoCollectionService interface {
	Launch(ctx context.Context, clientID string, req *dto.LaunchInfoCollectionRequest) (*dto.LaunchResponse, error)
	GetForm(ctx context.Context, token string) (*dto.InfoFormResponse, error)
	SubmitForm(ctx context.Context, req *dto.SubmitInfoFormRequest) error
}

type infoCollectionService struct {
	ServiceParams
	tokens     TokenService
	procedures ProcedureService
	audit      AuditService
}

func NewInfoCollectionService(params ServiceParams) InfoCollectionService {
	return &infoCollectionService{
		ServiceParams: params,
		tokens:        NewTokenService(params),
		procedures:    NewProcedureService(params),
		audit:         NewAuditService(params),
	}
}

func (s *infoCollectionService) Launch(ctx context.Context, clientID string, req *dto.LaunchInfoCollectionRequest) (*dto.LaunchResponse, error) {
	if req == nil {
		req = &dto.LaunchInfoCollectionRequest{}
	}
	log := s.Logger.WithContext(ctx)

	c, err := s.ClientRepo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	p, err := s.procedures.Create(ctx, c.ID, types.ProcedureTypeInfoCollection, c.Email())
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueClientToken(ctx, c.ID, types.TokenScopeForm, s.tokens.TTL(types.TokenScopeForm))
	if err != nil {
		return nil, err
	}
	link := s.publicURL(infoFormPath, token.Value)

	result := s.Notifier.Notify(ctx, notification.TemplateInfoCollection,
		notification.Recipient{Email: c.Email(), Name: c.Name()},
		map[string]any{
			"name":       c.Name(),
			"url":        link,
			"expires_at": formatDate(token.ExpiresAt),
		})
	if !result.Success {
		log.Warnw("information form email not delivered", "client_id", c.ID, "procedure_id", p.ID, "reason", result.Reason)
	}
	s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelMailSent, deliveryNote(result))

	resp := &dto.LaunchResponse{Procedure: p, Notification: &result, Link: link}

	if req.SendSMS {
		sms := s.Notifier.NotifySMS(ctx, c.Identity.PrimaryPhone(),
			fmt.Sprintf("Bonjour %s, merci de compléter vos informations : %s", c.Name(), link))
		if !sms.Success {
			log.Warnw("information form sms not delivered", "client_id", c.ID, "reason", sms.Reason)
		}
		resp.SMS = &sms
	}

	s.audit.Record(ctx, types.AuditSourceInfoCollection, types.AuditEventFormSent, map[string]any{
		"procedure_id": p.ID,
		"client_id":    c.ID,
		"email_sent":   result.Success,
		"sms":          req.SendSMS,
	})
	return resp, nil
}

func (s *infoCollectionService) GetForm(ctx context.Context, token string) (*dto.InfoFormResponse, error) {
	c, err := s.tokens.ValidateClientToken(ctx, token, types.TokenScopeForm)
	if err != nil {
		return nil, err
	}
	return &dto.InfoFormResponse{
		Type:      c.Type(),
		Identity:  client.CloneIdentity(c.Identity),
		ExpiresAt: c.FormTokenExpiresAt,
	}, nil
}

func (s *infoCollectionService) SubmitForm(ctx context.Context, req *dto.SubmitInfoFormRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c, err := s.tokens.ValidateClientToken(ctx, req.Token, types.TokenScopeForm)
	if err != nil {
		return err
	}
	identity, err := req.Identity()
	if err != nil {
		return err
	}
	if err := c.ReplaceIdentity(identity); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	var advanced *procedure.Procedure
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ClientRepo.CompleteForm(ctx, c.ID, req.Token, identity); err != nil {
			return err
		}

		p, err := s.ProcedureRepo.GetLatestForClient(ctx, c.ID, types.ProcedureTypeInfoCollection,
			[]types.ProcedureStatus{types.ProcedureStatusDraft})
		if ierr.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.procedures.Transition(ctx, p, types.ProcedureStatusPDFGenerated, "", ""); err != nil {
			return err
		}
		advanced = p
		return nil
	})
	if err != nil {
		return err
	}

	payload := map[string]any{"client_id": c.ID, "actor": "client"}
	if advanced != nil {
		s.procedures.AppendHistory(ctx, advanced.ID, types.HistoryLabelFormCompleted, "")
		payload["procedure_id"] = advanced.ID
	} else {
		s.Logger.WithContext(ctx).Warnw("form completed without an open information procedure", "client_id", c.ID)
	}
	s.audit.Record(ctx, types.AuditSourceInfoCollection, types.AuditEventFormCompleted, payload)
	return nil
}

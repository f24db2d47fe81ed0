package service

import (
	"context"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/types"
)

// ContractingService has an institution sign its contract through the e-signature provider
type ContractingService interface {
	Launch(ctx context.Context, clientID string, req *dto.LaunchContractRequest) (*dto.LaunchResponse, error)
	// HandleSignatureEvent applies a provider callback to the matching procedure
	HandleSignatureEvent(ctx context.Context, body []byte) (*dto.SignatureWebhookResponse, error)
}

type contractingService struct {
	ServiceParams
	procedures ProcedureService
	audit      AuditService
}

func NewContractingService(params ServiceParams) ContractingService {
	return &contractingService{
		ServiceParams: params,
		procedures:    NewProcedureService(params),
		audit:         NewAuditService(params),
	}
}

func (s *contractingService) Launch(ctx context.Context, clientID string, req *dto.LaunchContractRequest) (*dto.LaunchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ClientRepo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	institution, ok := c.Identity.(*client.Institution)
	if !ok {
		return nil, ierr.NewError("contracting requires an institution").
			WithHint("La contractualisation est réservée aux établissements").
			WithReportableDetails(map[string]any{"client_id": c.ID, "type_client": c.Type()}).
			Mark(ierr.ErrInvalidOperation)
	}
	contact := institution.Signer()

	p, err := s.procedures.Create(ctx, c.ID, types.ProcedureTypeContracting, contact.Email)
	if err != nil {
		return nil, err
	}

	if _, err := storeDocument(ctx, s.ServiceParams, p, &dto.UploadDocumentRequest{
		ProcedureID: p.ID,
		Title:       req.Title,
		Kind:        types.DocumentKindContract,
		FileName:    req.FileName,
		Content:     req.Content,
	}, types.GetActor(ctx)); err != nil {
		return nil, err
	}

	firstName, lastName := splitName(contact.Name)
	if lastName == "" {
		lastName = institution.Name
	}
	requestID, err := s.SignatureGateway.RequestSignature(ctx, &esign.Request{
		Name:     req.Title,
		FileName: req.FileName,
		Content:  req.Content,
		Signer: &esign.Signer{
			FirstName: firstName,
			LastName:  lastName,
			Email:     contact.Email,
			Phone:     contact.Phone,
		},
	})
	if err != nil {
		return nil, s.signatureFailed(ctx, p, err)
	}

	p.SignatureRequestID = requestID
	if err := s.procedures.Transition(ctx, p, types.ProcedureStatusSignRequested, types.HistoryLabelSignatureRequested, ""); err != nil {
		if cancelErr := s.SignatureGateway.Cancel(context.WithoutCancel(ctx), requestID); cancelErr != nil {
			s.Logger.WithContext(ctx).Errorw("failed to cancel unrecorded signature request",
				"procedure_id", p.ID,
				"signature_request_id", requestID,
				"error", cancelErr)
		}
		return nil, s.signatureFailed(ctx, p, err)
	}

	s.audit.Record(ctx, types.AuditSourceContracting, types.AuditEventSignatureRequested, map[string]any{
		"procedure_id":         p.ID,
		"client_id":            c.ID,
		"signature_request_id": requestID,
		"signer":               contact.Email,
	})
	return &dto.LaunchResponse{Procedure: p}, nil
}

// signatureFailed leaves the procedure in DRAFT with no request id and reports cause
func (s *contractingService) signatureFailed(ctx context.Context, p *procedure.Procedure, cause error) error {
	if err := p.RollbackToDraft(); err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to roll back procedure", "procedure_id", p.ID, "error", err)
	}

	step, _ := ierr.GetReportableDetails(cause)["step"].(esign.Step)

	s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelSignatureFailed, cause.Error())
	s.audit.Record(ctx, types.AuditSourceContracting, types.AuditEventSignatureFailed, map[string]any{
		"procedure_id": p.ID,
		"client_id":    p.ClientID,
		"step":         step,
		"error":        cause.Error(),
	})
	s.Logger.WithContext(ctx).Errorw("contract signature failed", "procedure_id", p.ID, "step", step, "error", cause)
	return cause
}

func (s *contractingService) HandleSignatureEvent(ctx context.Context, body []byte) (*dto.SignatureWebhookResponse, error) {
	event, err := esign.ParseEvent(body)
	if err != nil {
		return nil, err
	}
	log := s.Logger.WithContext(ctx).With("event", event.EventName, "signature_request_id", event.Data.SignatureRequest.ID)

	to, label, ok := event.TargetStatus()
	if !ok {
		log.Debugw("ignoring signature event")
		return &dto.SignatureWebhookResponse{Ignored: true}, nil
	}

	p, err := s.ProcedureRepo.GetBySignatureRequestID(ctx, event.Data.SignatureRequest.ID)
	if ierr.IsNotFound(err) {
		log.Warnw("signature event for unknown request")
		return &dto.SignatureWebhookResponse{Ignored: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Status != types.ProcedureStatusSignRequested {
		// redelivery of an event already applied
		return &dto.SignatureWebhookResponse{ProcedureID: p.ID, Status: p.Status, Ignored: true}, nil
	}

	if err := s.procedures.Transition(ctx, p, to, label, ""); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, types.AuditSourceESignWebhook, types.AuditEventStatusChanged, map[string]any{
		"procedure_id":         p.ID,
		"client_id":            p.ClientID,
		"signature_request_id": p.SignatureRequestID,
		"event":                event.EventName,
		"status":               to,
	})
	return &dto.SignatureWebhookResponse{ProcedureID: p.ID, Status: p.Status}, nil
}

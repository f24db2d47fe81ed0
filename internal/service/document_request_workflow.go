package service

import (
	"bytes"
	"context"

	"github.com/h2non/filetype"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/document"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/storage"
	"github.com/tutordesk/tutordesk/internal/types"
	"github.com/tutordesk/tutordesk/internal/webhook"
)

const (
	uploadPath = "/depot-documents"

	defaultContentType = "application/octet-stream"
)

// DocumentRequestService asks a client for documents through the automation
// webhook and stores what comes back
type DocumentRequestService interface {
	Launch(ctx context.Context, clientID string, req *dto.LaunchDocumentRequestRequest) (*dto.LaunchResponse, error)
	// UploadDocument attaches a file to a procedure on behalf of the admin
	UploadDocument(ctx context.Context, req *dto.UploadDocumentRequest) (*document.Document, error)
	// PublicUpload attaches a file to the procedure the upload token belongs to
	PublicUpload(ctx context.Context, token string, req *dto.UploadDocumentRequest) (*document.Document, error)
}

type documentRequestService struct {
	ServiceParams
	tokens     TokenService
	procedures ProcedureService
	audit      AuditService
}

func NewDocumentRequestService(params ServiceParams) DocumentRequestService {
	return &documentRequestService{
		ServiceParams: params,
		tokens:        NewTokenService(params),
		procedures:    NewProcedureService(params),
		audit:         NewAuditService(params),
	}
}

func (s *documentRequestService) Launch(ctx context.Context, clientID string, req *dto.LaunchDocumentRequestRequest) (*dto.LaunchResponse, error) {
	if req == nil {
		req = &dto.LaunchDocumentRequestRequest{}
	}

	c, err := s.ClientRepo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	p, err := s.procedures.Create(ctx, c.ID, types.ProcedureTypeDocumentRequest, c.Email())
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueProcedureToken(ctx, p.ID, types.TokenScopeUpload, s.tokens.TTL(types.TokenScopeUpload))
	if err != nil {
		return nil, err
	}
	link := s.publicURL(uploadPath, token.Value)
	s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelDocumentsRequested, req.Message)

	event := webhook.NewDocumentRequestEvent(p.ID, c.ID, c.Name(), c.Email(), link, token.ExpiresAt, s.now())
	if req.Message != "" {
		event.Data["message"] = req.Message
	}
	webhookResp, err := s.WebhookPublisher.Publish(ctx, event)
	if err != nil {
		s.Logger.WithContext(ctx).Errorw("document request webhook failed", "procedure_id", p.ID, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, types.AuditSourceDocumentRequest, types.AuditEventDocumentsRequested, map[string]any{
		"procedure_id": p.ID,
		"client_id":    c.ID,
	})
	return &dto.LaunchResponse{Procedure: p, WebhookResponse: webhookResp, Link: link}, nil
}

func (s *documentRequestService) UploadDocument(ctx context.Context, req *dto.UploadDocumentRequest) (*document.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.ProcedureRepo.Get(ctx, req.ProcedureID)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, p, req, types.GetActor(ctx))
}

func (s *documentRequestService) PublicUpload(ctx context.Context, token string, req *dto.UploadDocumentRequest) (*document.Document, error) {
	p, err := s.tokens.ValidateProcedureToken(ctx, token, types.TokenScopeUpload)
	if err != nil {
		return nil, err
	}
	if p.TypeCode != types.ProcedureTypeDocumentRequest {
		return nil, types.ErrInvalidToken()
	}
	req.ProcedureID = p.ID
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !isAcceptedUpload(req.Content) {
		return nil, ierr.NewError("unsupported file type").
			WithHint("Format de fichier non accepté (PDF ou image uniquement)").
			Mark(ierr.ErrValidation)
	}
	return s.store(ctx, p, req, "client")
}

func (s *documentRequestService) store(ctx context.Context, p *procedure.Procedure, req *dto.UploadDocumentRequest, uploadedBy string) (*document.Document, error) {
	if p.Status == types.ProcedureStatusClosed {
		return nil, ierr.NewError("procedure is closed").
			WithHint("La procédure est clôturée").
			WithReportableDetails(map[string]any{"procedure_id": p.ID}).
			Mark(ierr.ErrInvalidOperation)
	}
	doc, err := storeDocument(ctx, s.ServiceParams, p, req, uploadedBy)
	if err != nil {
		return nil, err
	}

	s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelDocumentReceived, doc.Title)
	s.audit.Record(ctx, types.AuditSourceDocumentRequest, types.AuditEventDocumentUploaded, map[string]any{
		"procedure_id": p.ID,
		"client_id":    p.ClientID,
		"document_id":  doc.ID,
		"kind":         doc.Kind,
	})
	return doc, nil
}

// storeDocument writes the blob first, then the metadata row
func storeDocument(ctx context.Context, params ServiceParams, p *procedure.Procedure, req *dto.UploadDocumentRequest, uploadedBy string) (*document.Document, error) {
	doc := &document.Document{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DOCUMENT),
		ProcedureID: p.ID,
		Kind:        req.Kind,
		Title:       req.Title,
		ContentType: detectContentType(req.Content),
		Size:        int64(len(req.Content)),
		UploadedBy:  uploadedBy,
		CreatedAt:   params.now(),
	}
	doc.StoragePath = storage.ObjectPath(p.ID, doc.ID, req.FileName)

	if err := params.BlobStore.Upload(ctx, doc.StoragePath, doc.ContentType, bytes.NewReader(req.Content)); err != nil {
		return nil, err
	}
	if err := params.DocumentRepo.Create(ctx, doc); err != nil {
		params.Logger.WithContext(ctx).Errorw("document stored without metadata row",
			"procedure_id", p.ID,
			"storage_path", doc.StoragePath,
			"error", err)
		return nil, err
	}
	return doc, nil
}

func detectContentType(content []byte) string {
	kind, err := filetype.Match(content)
	if err != nil || kind == filetype.Unknown {
		return defaultContentType
	}
	return kind.MIME.Value
}

func isAcceptedUpload(content []byte) bool {
	return filetype.Is(content, "pdf") || filetype.IsImage(content)
}

package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/document"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

const downloadPath = "/telechargement"

// DocumentDeliveryService hands documents to a client through a download page
type DocumentDeliveryService interface {
	Launch(ctx context.Context, clientID string, req *dto.LaunchDocumentDeliveryRequest) (*dto.LaunchResponse, error)
	// SendEmail emails the download page link. It may be called again and keeps the same token.
	SendEmail(ctx context.Context, procedureID string) (*dto.SendDeliveryResponse, error)
	PublicDownload(ctx context.Context, token string) (*dto.DownloadResponse, error)
}

type documentDeliveryService struct {
	ServiceParams
	tokens     TokenService
	procedures ProcedureService
	audit      AuditService
}

func NewDocumentDeliveryService(params ServiceParams) DocumentDeliveryService {
	return &documentDeliveryService{
		ServiceParams: params,
		tokens:        NewTokenService(params),
		procedures:    NewProcedureService(params),
		audit:         NewAuditService(params),
	}
}

func (s *documentDeliveryService) Launch(ctx context.Context, clientID string, req *dto.LaunchDocumentDeliveryRequest) (*dto.LaunchResponse, error) {
	if req == nil {
		req = &dto.LaunchDocumentDeliveryRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.ClientRepo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	recipient := lo.Ternary(req.RecipientEmail != "", req.RecipientEmail, c.Email())
	if recipient == "" {
		return nil, ierr.NewError("no recipient email").
			WithHint("Aucune adresse email pour ce client").
			WithReportableDetails(map[string]any{"client_id": c.ID}).
			Mark(ierr.ErrValidation)
	}

	p, err := s.procedures.Create(ctx, c.ID, types.ProcedureTypeDocumentDelivery, recipient)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.IssueProcedureToken(ctx, p.ID, types.TokenScopeDownload, s.tokens.TTL(types.TokenScopeDownload))
	if err != nil {
		return nil, err
	}
	p.DownloadToken = token.Value
	p.DownloadTokenExpiresAt = &token.ExpiresAt

	return &dto.LaunchResponse{Procedure: p, Link: s.publicURL(downloadPath, token.Value)}, nil
}

func (s *documentDeliveryService) SendEmail(ctx context.Context, procedureID string) (*dto.SendDeliveryResponse, error) {
	p, err := s.ProcedureRepo.Get(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	if p.TypeCode != types.ProcedureTypeDocumentDelivery {
		return nil, ierr.NewError("not a document delivery procedure").
			WithHint("Cette procédure n'est pas un envoi de documents").
			WithReportableDetails(map[string]any{"procedure_id": p.ID, "type": p.TypeCode}).
			Mark(ierr.ErrInvalidOperation)
	}
	if p.Status == types.ProcedureStatusClosed {
		return nil, ierr.NewError("procedure is closed").
			WithHint("La procédure est clôturée").
			Mark(ierr.ErrInvalidOperation)
	}
	if err := types.CheckExpiry(p.DownloadTokenExpiresAt, s.now()); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Le lien de téléchargement a expiré, créez un nouvel envoi").
			Mark(ierr.ErrInvalidOperation)
	}

	c, err := s.ClientRepo.Get(ctx, p.ClientID)
	if err != nil {
		return nil, err
	}
	docs, err := s.DocumentRepo.ListByProcedures(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ierr.NewError("no document attached").
			WithHint("Aucun document à envoyer").
			WithReportableDetails(map[string]any{"procedure_id": p.ID}).
			Mark(ierr.ErrValidation)
	}
	links, err := s.signLinks(ctx, docs)
	if err != nil {
		return nil, err
	}

	recipient := lo.Ternary(p.RecipientEmail != "", p.RecipientEmail, c.Email())
	result := s.Notifier.Notify(ctx, notification.TemplateDocumentDelivery,
		notification.Recipient{Email: recipient, Name: c.Name()},
		map[string]any{
			"name":       c.Name(),
			"url":        s.publicURL(downloadPath, p.DownloadToken),
			"expires_at": formatDate(*p.DownloadTokenExpiresAt),
			"documents":  links,
		})
	if !result.Success {
		s.Logger.WithContext(ctx).Warnw("delivery email not delivered", "procedure_id", p.ID, "reason", result.Reason)
	}
	s.procedures.AppendHistory(ctx, p.ID, types.HistoryLabelLinkSent, deliveryNote(result))

	s.audit.Record(ctx, types.AuditSourceDocumentDelivery, types.AuditEventDeliverySent, map[string]any{
		"procedure_id": p.ID,
		"client_id":    p.ClientID,
		"documents":    len(docs),
		"email_sent":   result.Success,
	})
	return &dto.SendDeliveryResponse{Notification: result, Documents: links}, nil
}

func (s *documentDeliveryService) PublicDownload(ctx context.Context, token string) (*dto.DownloadResponse, error) {
	p, err := s.tokens.ValidateProcedureToken(ctx, token, types.TokenScopeDownload)
	if err != nil {
		return nil, err
	}
	docs, err := s.DocumentRepo.ListByProcedures(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	links, err := s.signLinks(ctx, docs)
	if err != nil {
		return nil, err
	}
	return &dto.DownloadResponse{Documents: links, ExpiresAt: p.DownloadTokenExpiresAt}, nil
}

// signLinks mints a short-lived URL per document
func (s *documentDeliveryService) signLinks(ctx context.Context, docs []*document.Document) ([]*dto.DocumentLink, error) {
	ttl := s.Config.Tokens.SignedURL
	if ttl <= 0 {
		ttl = types.SignedURLTTL
	}
	links := make([]*dto.DocumentLink, 0, len(docs))
	for _, d := range docs {
		url, err := s.BlobStore.SignedURL(ctx, d.StoragePath, ttl)
		if err != nil {
			return nil, err
		}
		links = append(links, &dto.DocumentLink{
			ID:          d.ID,
			Title:       d.Title,
			Kind:        d.Kind,
			ContentType: d.ContentType,
			URL:         url,
		})
	}
	return links, nil
}

package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/domain/audit"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/domain/document"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/storage"
	"github.com/tutordesk/tutordesk/internal/webhook"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	ClientRepo    client.Repository
	ProcedureRepo procedure.Repository
	DocumentRepo  document.Repository
	AuditRepo     audit.Repository

	// Outbound
	Notifier         notification.Notifier
	SignatureGateway *esign.Gateway
	WebhookPublisher webhook.Publisher
	BlobStore        storage.BlobStore

	// Now is the clock; nil means time.Now
	Now func() time.Time
}

// NewServiceParams creates a new ServiceParams instance
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	clientRepo client.Repository,
	procedureRepo procedure.Repository,
	documentRepo document.Repository,
	auditRepo audit.Repository,
	notifier notification.Notifier,
	signatureGateway *esign.Gateway,
	webhookPublisher webhook.Publisher,
	blobStore storage.BlobStore,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		ClientRepo:       clientRepo,
		ProcedureRepo:    procedureRepo,
		DocumentRepo:     documentRepo,
		AuditRepo:        auditRepo,
		Notifier:         notifier,
		SignatureGateway: signatureGateway,
		WebhookPublisher: webhookPublisher,
		BlobStore:        blobStore,
		Now:              time.Now,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

// publicURL joins the public front-end origin with path and a token query
func (p ServiceParams) publicURL(path, token string) string {
	return strings.TrimRight(p.Config.Public.BaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

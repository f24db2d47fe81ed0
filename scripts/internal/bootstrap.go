package internal

import (
	"fmt"

	"github.com/tutordesk/tutordesk/internal/cache"
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/httpclient"
	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/postgres"
	repo "github.com/tutordesk/tutordesk/internal/repository/postgres"
	"github.com/tutordesk/tutordesk/internal/service"
	"github.com/tutordesk/tutordesk/internal/storage"
	"github.com/tutordesk/tutordesk/internal/webhook"
)

// newServiceParams wires the same dependencies as the server, without HTTP
func newServiceParams() (service.ServiceParams, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return service.ServiceParams{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return service.ServiceParams{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return service.ServiceParams{}, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	pgClient := postgres.NewClient(db, log)

	blobs, err := storage.NewBlobStore(cfg, log)
	if err != nil {
		_ = db.Close()
		return service.ServiceParams{}, nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	httpClient := httpclient.NewClient(cfg, log)
	params := service.NewServiceParams(
		log,
		cfg,
		pgClient,
		repo.NewClientRepository(pgClient, log),
		cache.NewCachedProcedureRepository(repo.NewProcedureRepository(pgClient, log), cache.NewInMemoryCache()),
		repo.NewDocumentRepository(pgClient, log),
		repo.NewAuditRepository(pgClient, log),
		notification.NewDispatcher(notification.NewSender(cfg, httpClient, log), cfg, log),
		esign.NewGateway(esign.NewClient(cfg, httpClient, log), cfg, log),
		webhook.NewPublisher(cfg, httpClient, log),
		blobs,
	)

	cleanup := func() {
		_ = db.Close()
		_ = log.Close()
	}
	return params, cleanup, nil
}

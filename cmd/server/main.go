package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"

	"github.com/tutordesk/tutordesk/internal/api"
	"github.com/tutordesk/tutordesk/internal/api/cron"
	"github.com/tutordesk/tutordesk/internal/api/public"
	v1 "github.com/tutordesk/tutordesk/internal/api/v1"
	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/cache"
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
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

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Database
			postgres.NewDB,
			postgres.NewClient,

			// Outbound
			httpclient.NewClient,
			notification.NewSender,
			notification.NewDispatcher,
			esign.NewClient,
			esign.NewGateway,
			webhook.NewPublisher,
			storage.NewBlobStore,
			auth.NewSupabaseAuth,

			// Repositories
			repo.NewClientRepository,
			provideProcedureRepository,
			repo.NewDocumentRepository,
			repo.NewAuditRepository,
		),

		fx.Provide(
			service.NewServiceParams,
			service.NewClientService,
			service.NewProcedureService,
			service.NewAuditService,
			service.NewInfoCollectionService,
			service.NewDocumentRequestService,
			service.NewDocumentDeliveryService,
			service.NewContractingService,
			service.NewRenewalService,
		),

		fx.Provide(
			provideHandlers,
			provideRouter,
		),

		fx.Invoke(
			initSentry,
			startServer,
		),
	)

	app.Run()
}

func provideProcedureRepository(client postgres.IClient, log *logger.Logger) procedure.Repository {
	return cache.NewCachedProcedureRepository(repo.NewProcedureRepository(client, log), cache.NewInMemoryCache())
}

func provideHandlers(
	log *logger.Logger,
	authProvider auth.Provider,
	clientService service.ClientService,
	procedureService service.ProcedureService,
	auditService service.AuditService,
	infoCollectionService service.InfoCollectionService,
	documentRequestService service.DocumentRequestService,
	documentDeliveryService service.DocumentDeliveryService,
	contractingService service.ContractingService,
	renewalService service.RenewalService,
) api.Handlers {
	return api.Handlers{
		Auth:   v1.NewAuthHandler(authProvider, log),
		Client: v1.NewClientHandler(clientService, procedureService, log),
		Procedure: v1.NewProcedureHandler(
			procedureService,
			infoCollectionService,
			documentRequestService,
			documentDeliveryService,
			contractingService,
			log,
		),
		Audit:       v1.NewAuditHandler(auditService, log),
		ESign:       v1.NewESignWebhookHandler(contractingService, log),
		Form:        public.NewFormHandler(infoCollectionService, log),
		Document:    public.NewDocumentHandler(documentRequestService, documentDeliveryService, log),
		Renewal:     public.NewRenewalHandler(renewalService, log),
		Contact:     public.NewContactHandler(clientService, log),
		RenewalCron: cron.NewRenewalCronHandler(renewalService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger, authProvider auth.Provider) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = log.GetGinLogger()
	return api.NewRouter(handlers, cfg, log, authProvider)
}

func initSentry(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) error {
	if !cfg.Sentry.Enabled {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.Sentry.SampleRate,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		},
	})
	log.Infow("sentry enabled", "environment", cfg.Sentry.Environment)
	return nil
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	db *sqlx.DB,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalw("server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			if err := srv.Shutdown(ctx); err != nil {
				log.Errorw("server shutdown failed", "error", err)
			}
			if err := db.Close(); err != nil {
				log.Errorw("failed to close database", "error", err)
			}
			return log.Close()
		},
	})
}

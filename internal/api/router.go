package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/api/cron"
	"github.com/tutordesk/tutordesk/internal/api/public"
	v1 "github.com/tutordesk/tutordesk/internal/api/v1"
	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/rest/middleware"
)

type Handlers struct {
	Auth        *v1.AuthHandler
	Client      *v1.ClientHandler
	Procedure   *v1.ProcedureHandler
	Audit       *v1.AuditHandler
	ESign       *v1.ESignWebhookHandler
	Form        *public.FormHandler
	Document    *public.DocumentHandler
	Renewal     *public.RenewalHandler
	Contact     *public.ContactHandler
	RenewalCron *cron.RenewalCronHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger, authProvider auth.Provider) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public token-gated routes
	pub := router.Group("/public", middleware.RateLimitMiddleware(cfg))
	{
		forms := pub.Group("/forms")
		{
			forms.GET("/info", handlers.Form.GetInfoForm)
			forms.POST("/info", handlers.Form.SubmitInfoForm)
		}
		pub.POST("/uploads", handlers.Document.Upload)
		pub.GET("/downloads", handlers.Document.Download)
		pub.GET("/renewal", handlers.Renewal.GetForm)
		pub.POST("/renewal", handlers.Renewal.Respond)
		pub.POST("/contact", handlers.Contact.Submit)
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/esign", middleware.WebhookSecretMiddleware(cfg.ESign.WebhookSecret), handlers.ESign.HandleEvent)
	}

	cronGroup := router.Group("/cron", middleware.CronAuthMiddleware(cfg.Cron.Secret))
	{
		renewal := cronGroup.Group("/renewal")
		{
			renewal.GET("/initial", handlers.RenewalCron.SendInitial)
			renewal.GET("/reminders", handlers.RenewalCron.SendReminders)
		}
	}

	v1Public := router.Group("/v1", middleware.RateLimitMiddleware(cfg))
	{
		v1Public.POST("/auth/login", handlers.Auth.Login)
	}

	v1Private := router.Group("/v1",
		middleware.AuthenticateMiddleware(authProvider, log),
		middleware.SentryUserContextMiddleware,
	)
	{
		clients := v1Private.Group("/clients")
		{
			clients.POST("", handlers.Client.CreateClient)
			clients.GET("", handlers.Client.ListClients)
			clients.GET("/export", handlers.Client.ExportClients)
			clients.GET("/:id", handlers.Client.GetClient)
			clients.PUT("/:id", handlers.Client.UpdateClient)
			clients.POST("/:id/promote", handlers.Client.PromoteClient)
			clients.GET("/:id/procedures", handlers.Client.ListProcedures)

			launch := clients.Group("/:id/procedures")
			{
				launch.POST("/info-collection", handlers.Procedure.LaunchInfoCollection)
				launch.POST("/document-request", handlers.Procedure.LaunchDocumentRequest)
				launch.POST("/document-delivery", handlers.Procedure.LaunchDocumentDelivery)
				launch.POST("/contracting", handlers.Procedure.LaunchContract)
			}
		}

		v1Private.GET("/procedure-types", handlers.Procedure.ListTypes)

		procedures := v1Private.Group("/procedures")
		{
			procedures.GET("/:id", handlers.Procedure.GetProcedure)
			procedures.POST("/:id/close", handlers.Procedure.CloseProcedure)
			procedures.POST("/:id/documents", handlers.Procedure.UploadDocument)
			procedures.POST("/:id/send-email", handlers.Procedure.SendDeliveryEmail)
		}

		v1Private.GET("/audit-logs", handlers.Audit.ListAuditLogs)
	}

	return router
}

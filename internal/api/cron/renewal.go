package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
)

// RenewalCronHandler triggers the renewal campaign batches
type RenewalCronHandler struct {
	renewalService service.RenewalService
	logger         *logger.Logger
}

// NewRenewalCronHandler creates a new renewal cron handler
func NewRenewalCronHandler(
	renewalService service.RenewalService,
	logger *logger.Logger,
) *RenewalCronHandler {
	return &RenewalCronHandler{
		renewalService: renewalService,
		logger:         logger,
	}
}

// SendInitial emails this year's renewal form to every eligible client
func (h *RenewalCronHandler) SendInitial(c *gin.Context) {
	h.logger.Infow("starting renewal initial cron job", "time", time.Now().UTC().Format(time.RFC3339))

	report, err := h.renewalService.SendInitialBatch(c.Request.Context())
	if err != nil {
		h.logger.Errorw("renewal initial batch failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed renewal initial cron job",
		"success_count", report.SuccessCount,
		"error_count", report.ErrorCount,
		"skipped", report.Skipped,
	)
	c.JSON(http.StatusOK, report)
}

// SendReminders re-sends the renewal link to clients who have not answered
func (h *RenewalCronHandler) SendReminders(c *gin.Context) {
	h.logger.Infow("starting renewal reminder cron job", "time", time.Now().UTC().Format(time.RFC3339))

	report, err := h.renewalService.SendReminderBatch(c.Request.Context())
	if err != nil {
		h.logger.Errorw("renewal reminder batch failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed renewal reminder cron job",
		"success_count", report.SuccessCount,
		"error_count", report.ErrorCount,
		"skipped", report.Skipped,
	)
	c.JSON(http.StatusOK, report)
}

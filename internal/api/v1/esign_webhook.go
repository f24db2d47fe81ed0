package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
)

const maxWebhookBody = 1 << 20

// ESignWebhookHandler receives signature provider callbacks
type ESignWebhookHandler struct {
	contracting service.ContractingService
	log         *logger.Logger
}

func NewESignWebhookHandler(contracting service.ContractingService, log *logger.Logger) *ESignWebhookHandler {
	return &ESignWebhookHandler{contracting: contracting, log: log}
}

// HandleEvent always answers 200 for ignored events so the provider stops retrying
func (h *ESignWebhookHandler) HandleEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Corps de requête illisible").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.contracting.HandleSignatureEvent(c.Request.Context(), body)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Errorw("failed to handle signature event", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

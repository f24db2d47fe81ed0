package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
)

type ContactHandler struct {
	service service.ClientService
	log     *logger.Logger
}

func NewContactHandler(service service.ClientService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{service: service, log: log}
}

// Submit records a contact request; the prospect id is not echoed back
func (h *ContactHandler) Submit(c *gin.Context) {
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Message invalide").
			Mark(ierr.ErrValidation))
		return
	}

	if _, err := h.service.SubmitContact(c.Request.Context(), &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(nil))
}

package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
)

type RenewalHandler struct {
	service service.RenewalService
	log     *logger.Logger
}

func NewRenewalHandler(service service.RenewalService, log *logger.Logger) *RenewalHandler {
	return &RenewalHandler{service: service, log: log}
}

func (h *RenewalHandler) GetForm(c *gin.Context) {
	resp, err := h.service.GetForm(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

func (h *RenewalHandler) Respond(c *gin.Context) {
	var req dto.SubmitRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Réponse invalide").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.service.Respond(c.Request.Context(), &req); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil))
}

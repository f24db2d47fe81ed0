package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
)

// FormHandler serves the token-gated client information form
type FormHandler struct {
	service service.InfoCollectionService
	log     *logger.Logger
}

func NewFormHandler(service service.InfoCollectionService, log *logger.Logger) *FormHandler {
	return &FormHandler{service: service, log: log}
}

func (h *FormHandler) GetInfoForm(c *gin.Context) {
	resp, err := h.service.GetForm(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

func (h *FormHandler) SubmitInfoForm(c *gin.Context) {
	var req dto.SubmitInfoFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Données du formulaire invalides").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.service.SubmitForm(c.Request.Context(), &req); err != nil {
		h.log.WithContext(c.Request.Context()).Warnw("info form rejected", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(nil))
}

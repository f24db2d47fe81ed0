package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
	"github.com/tutordesk/tutordesk/internal/types"
)

type ProcedureHandler struct {
	procedures     service.ProcedureService
	infoCollection service.InfoCollectionService
	docRequest     service.DocumentRequestService
	docDelivery    service.DocumentDeliveryService
	contracting    service.ContractingService
	log            *logger.Logger
}

func NewProcedureHandler(
	procedures service.ProcedureService,
	infoCollection service.InfoCollectionService,
	docRequest service.DocumentRequestService,
	docDelivery service.DocumentDeliveryService,
	contracting service.ContractingService,
	log *logger.Logger,
) *ProcedureHandler {
	return &ProcedureHandler{
		procedures:     procedures,
		infoCollection: infoCollection,
		docRequest:     docRequest,
		docDelivery:    docDelivery,
		contracting:    contracting,
		log:            log,
	}
}

// @Summary List procedure types
// @Tags Procedures
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} procedure.ProcedureType
// @Router /procedure-types [get]
func (h *ProcedureHandler) ListTypes(c *gin.Context) {
	resp, err := h.procedures.ListTypes(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProcedureHandler) GetProcedure(c *gin.Context) {
	resp, err := h.procedures.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Close a procedure
// @Tags Procedures
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Procedure ID"
// @Param body body dto.CloseProcedureRequest false "Closing note"
// @Success 200 {object} procedure.Procedure
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /procedures/{id}/close [post]
func (h *ProcedureHandler) CloseProcedure(c *gin.Context) {
	var req dto.CloseProcedureRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := h.procedures.Close(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadDocument attaches a multipart file to a procedure
func (h *ProcedureHandler) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Fichier manquant").
			Mark(ierr.ErrValidation))
		return
	}
	req, err := dto.NewUploadDocumentRequest(fh, c.PostForm("title"), types.DocumentKind(c.PostForm("kind")))
	if err != nil {
		c.Error(err)
		return
	}
	req.ProcedureID = c.Param("id")

	doc, err := h.docRequest.UploadDocument(c.Request.Context(), req)
	if err != nil {
		h.log.Errorw("failed to upload document", "procedure_id", req.ProcedureID, "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// SendDeliveryEmail emails the download link of a document delivery
func (h *ProcedureHandler) SendDeliveryEmail(c *gin.Context) {
	resp, err := h.docDelivery.SendEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProcedureHandler) LaunchInfoCollection(c *gin.Context) {
	var req dto.LaunchInfoCollectionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.infoCollection.Launch(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProcedureHandler) LaunchDocumentRequest(c *gin.Context) {
	var req dto.LaunchDocumentRequestRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.docRequest.Launch(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProcedureHandler) LaunchDocumentDelivery(c *gin.Context) {
	var req dto.LaunchDocumentDeliveryRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.docDelivery.Launch(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// LaunchContract takes the contract PDF as multipart "file" and starts the signature saga
func (h *ProcedureHandler) LaunchContract(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Contrat manquant").
			Mark(ierr.ErrValidation))
		return
	}
	content, err := dto.ReadFormFile(fh)
	if err != nil {
		c.Error(err)
		return
	}
	req := &dto.LaunchContractRequest{
		Title:    c.DefaultPostForm("title", "Contrat"),
		FileName: fh.Filename,
		Content:  content,
	}

	resp, err := h.contracting.Launch(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.log.Errorw("contract launch failed", "client_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// bindOptionalJSON accepts an empty body
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return false
	}
	return true
}

package public

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/service"
	"github.com/tutordesk/tutordesk/internal/types"
)

// DocumentHandler serves client uploads and the download page
type DocumentHandler struct {
	docRequest  service.DocumentRequestService
	docDelivery service.DocumentDeliveryService
	log         *logger.Logger
}

func NewDocumentHandler(docRequest service.DocumentRequestService, docDelivery service.DocumentDeliveryService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{docRequest: docRequest, docDelivery: docDelivery, log: log}
}

// Upload expects multipart fields token, title, kind and file
func (h *DocumentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dto.MaxUploadSize+(1<<20))

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

	doc, err := h.docRequest.PublicUpload(c.Request.Context(), c.PostForm("token"), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(&dto.DocumentLink{
		ID:          doc.ID,
		Title:       doc.Title,
		Kind:        doc.Kind,
		ContentType: doc.ContentType,
	}))
}

func (h *DocumentHandler) Download(c *gin.Context) {
	resp, err := h.docDelivery.PublicDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

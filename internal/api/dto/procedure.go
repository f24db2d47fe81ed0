package dto

import (
	"encoding/json"
	"time"

	"github.com/tutordesk/tutordesk/internal/domain/document"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
	"github.com/tutordesk/tutordesk/internal/validator"
)

type LaunchInfoCollectionRequest struct {
	SendSMS bool `json:"send_sms"`
}

type LaunchDocumentRequestRequest struct {
	Message string `json:"message,omitempty" validate:"max=2000"`
}

type LaunchDocumentDeliveryRequest struct {
	// RecipientEmail overrides the client's primary email
	RecipientEmail string `json:"recipient_email,omitempty" validate:"omitempty,email"`
}

func (r *LaunchDocumentDeliveryRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// LaunchContractRequest carries the contract file to have signed
type LaunchContractRequest struct {
	Title    string `validate:"required"`
	FileName string `validate:"required"`
	Content  []byte `validate:"required,min=1"`
}

func (r *LaunchContractRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// LaunchResponse is what every orchestrator returns once the procedure exists
type LaunchResponse struct {
	Procedure       *procedure.Procedure `json:"procedure"`
	Notification    *notification.Result `json:"notification,omitempty"`
	SMS             *notification.Result `json:"sms,omitempty"`
	WebhookResponse json.RawMessage      `json:"webhook_response,omitempty"`
	Link            string               `json:"link,omitempty"`
}

type ProcedureResponse struct {
	*procedure.Procedure
	History   []*procedure.StatusHistory `json:"history"`
	Documents []*document.Document       `json:"documents"`
}

type CloseProcedureRequest struct {
	Note string `json:"note,omitempty" validate:"max=2000"`
}

// UploadDocumentRequest is built by handlers from a multipart form
type UploadDocumentRequest struct {
	ProcedureID string             `validate:"required"`
	Title       string             `validate:"required,max=255"`
	Kind        types.DocumentKind `validate:"required"`
	FileName    string             `validate:"required"`
	Content     []byte             `validate:"required,min=1"`
}

func (r *UploadDocumentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Kind.Validate()
}

type DocumentLink struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Kind        types.DocumentKind `json:"kind"`
	ContentType string             `json:"content_type"`
	URL         string             `json:"url,omitempty"`
}

type DownloadResponse struct {
	Documents []*DocumentLink `json:"documents"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

type SendDeliveryResponse struct {
	Notification notification.Result `json:"notification"`
	Documents    []*DocumentLink     `json:"documents"`
}

type SignatureWebhookResponse struct {
	ProcedureID string                `json:"procedure_id,omitempty"`
	Status      types.ProcedureStatus `json:"status,omitempty"`
	Ignored     bool                  `json:"ignored,omitempty"`
}

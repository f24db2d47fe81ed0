package procedure

import (
	"time"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// ProcedureType is a read-only catalog entry anchoring procedures to a workflow kind
type ProcedureType struct {
	ID    string                  `json:"id" db:"id"`
	Code  types.ProcedureTypeCode `json:"code" db:"code"`
	Label string                  `json:"label" db:"label"`
}

// Procedure is one run of a workflow against one client
type Procedure struct {
	ID                     string                  `json:"id"`
	ClientID               string                  `json:"client_id"`
	ProcedureTypeID        string                  `json:"procedure_type_id"`
	TypeCode               types.ProcedureTypeCode `json:"type_code"`
	Status                 types.ProcedureStatus   `json:"status"`
	SignatureRequestID     string                  `json:"signature_request_id,omitempty"`
	UploadToken            string                  `json:"-"`
	UploadTokenExpiresAt   *time.Time              `json:"upload_token_expires_at,omitempty"`
	DownloadToken          string                  `json:"-"`
	DownloadTokenExpiresAt *time.Time              `json:"download_token_expires_at,omitempty"`
	RecipientEmail         string                  `json:"recipient_email,omitempty"`
	CreatedAt              time.Time               `json:"created_at"`
	UpdatedAt              time.Time               `json:"updated_at"`
}

// New returns a DRAFT procedure of the given type for clientID
func New(clientID string, pt *ProcedureType, recipientEmail string, now time.Time) *Procedure {
	return &Procedure{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROCEDURE),
		ClientID:        clientID,
		ProcedureTypeID: pt.ID,
		TypeCode:        pt.Code,
		Status:          types.ProcedureStatusDraft,
		RecipientEmail:  recipientEmail,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
}

// StatusHistory is an append-only timeline entry of a procedure
type StatusHistory struct {
	ID          string             `json:"id" db:"id"`
	ProcedureID string             `json:"procedure_id" db:"procedure_id"`
	Label       types.HistoryLabel `json:"label" db:"label"`
	Note        string             `json:"note,omitempty" db:"note"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
}

func NewStatusHistory(procedureID string, label types.HistoryLabel, note string, now time.Time) *StatusHistory {
	return &StatusHistory{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_HISTORY),
		ProcedureID: procedureID,
		Label:       label,
		Note:        note,
		CreatedAt:   now.UTC(),
	}
}

func ErrProcedureNotFound(id string) error {
	return ierr.NewError("procedure not found").
		WithHint("Procédure non trouvée").
		WithReportableDetails(map[string]any{"procedure_id": id}).
		Mark(ierr.ErrNotFound)
}

func ErrProcedureTypeNotFound(code types.ProcedureTypeCode) error {
	return ierr.NewError("procedure type not found").
		WithHint("Type de procédure introuvable").
		WithReportableDetails(map[string]any{"code": code}).
		Mark(ierr.ErrNotFound)
}

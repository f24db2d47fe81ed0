package esign

import (
	"encoding/json"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

const (
	EventSignatureRequestDone     = "signature_request.done"
	EventSignatureRequestDeclined = "signature_request.declined"
	EventSignatureRequestExpired  = "signature_request.expired"
)

// Event is the part of a provider webhook delivery we act on
type Event struct {
	ID        string `json:"event_id"`
	EventName string `json:"event_name"`
	Data      struct {
		SignatureRequest struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"signature_request"`
	} `json:"data"`
}

func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Notification de signature illisible").
			Mark(ierr.ErrValidation)
	}
	if e.EventName == "" || e.Data.SignatureRequest.ID == "" {
		return nil, ierr.NewError("event name and signature request id are required").
			WithHint("Notification de signature incomplète").
			Mark(ierr.ErrValidation)
	}
	return &e, nil
}

// TargetStatus maps the event to a procedure status. ok is false for events
// that do not end the signature.
func (e *Event) TargetStatus() (status types.ProcedureStatus, label types.HistoryLabel, ok bool) {
	switch e.EventName {
	case EventSignatureRequestDone:
		return types.ProcedureStatusSigned, types.HistoryLabelSigned, true
	case EventSignatureRequestDeclined:
		return types.ProcedureStatusRefused, types.HistoryLabelRefused, true
	case EventSignatureRequestExpired:
		return types.ProcedureStatusExpired, types.HistoryLabelExpired, true
	}
	return "", "", false
}

package audit

import (
	"context"
	"time"

	"github.com/tutordesk/tutordesk/internal/types"
)

// Entry is an append-only record of a state-changing event
type Entry struct {
	ID        string            `json:"id"`
	Source    types.AuditSource `json:"source"`
	Event     types.AuditEvent  `json:"event"`
	Payload   map[string]any    `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type Filter struct {
	*types.QueryFilter
	Source types.AuditSource `form:"source"`
	Event  types.AuditEvent  `form:"event"`
	// EntityID matches payload.procedure_id or payload.client_id
	EntityID string `form:"entity_id"`
}

// Repository is write-mostly; List exists for the admin audit view
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter *Filter) ([]*Entry, error)
}

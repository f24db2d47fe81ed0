package document

import (
	"context"
	"time"

	"github.com/tutordesk/tutordesk/internal/types"
)

// Document is an immutable reference to a stored file attached to a procedure
type Document struct {
	ID          string             `json:"id" db:"id"`
	ProcedureID string             `json:"procedure_id" db:"procedure_id"`
	Kind        types.DocumentKind `json:"kind" db:"kind"`
	Title       string             `json:"title" db:"title"`
	StoragePath string             `json:"storage_path" db:"storage_path"`
	ContentType string             `json:"content_type" db:"content_type"`
	Size        int64              `json:"size" db:"size"`
	UploadedBy  string             `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
}

// Repository defines persistence for documents. There is no update or delete.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	ListByProcedures(ctx context.Context, procedureIDs []string) ([]*Document, error)
}

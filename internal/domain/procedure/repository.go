package procedure

import (
	"context"
	"time"

	"github.com/tutordesk/tutordesk/internal/types"
)

// Repository defines persistence for procedures, their catalog and their timeline
type Repository interface {
	GetType(ctx context.Context, code types.ProcedureTypeCode) (*ProcedureType, error)
	ListTypes(ctx context.Context) ([]*ProcedureType, error)

	Create(ctx context.Context, p *Procedure) error
	Get(ctx context.Context, id string) (*Procedure, error)
	ListByClient(ctx context.Context, clientID string) ([]*Procedure, error)
	// GetLatestForClient returns the most recent procedure of code for the client
	// whose status is one of statuses
	GetLatestForClient(ctx context.Context, clientID string, code types.ProcedureTypeCode, statuses []types.ProcedureStatus) (*Procedure, error)
	GetByUploadToken(ctx context.Context, token string) (*Procedure, error)
	GetByDownloadToken(ctx context.Context, token string) (*Procedure, error)
	GetBySignatureRequestID(ctx context.Context, signatureRequestID string) (*Procedure, error)

	// UpdateStatus persists p.Status and p.SignatureRequestID only if the stored
	// status still equals from; otherwise it fails with ErrVersionConflict
	UpdateStatus(ctx context.Context, p *Procedure, from types.ProcedureStatus) error
	SetUploadToken(ctx context.Context, id, token string, expiresAt time.Time) error
	SetDownloadToken(ctx context.Context, id, token string, expiresAt time.Time) error

	AppendHistory(ctx context.Context, h *StatusHistory) error
	ListHistory(ctx context.Context, procedureIDs []string) ([]*StatusHistory, error)
}

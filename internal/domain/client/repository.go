package client

import (
	"context"
	"time"

	"github.com/tutordesk/tutordesk/internal/types"
)

// Repository defines persistence for clients. Token lookups and token consumption
// live here because tokens are stored on the client row.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, filter *types.ClientFilter) ([]*Client, error)
	Count(ctx context.Context, filter *types.ClientFilter) (int, error)
	// Update writes admin-editable fields (identity, status, sub type, notes)
	Update(ctx context.Context, c *Client) error

	GetByFormToken(ctx context.Context, token string) (*Client, error)
	SetFormToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// CompleteForm writes identity and clears the form token only if token is still
	// the current one; otherwise it fails with ErrTokenConsumed
	CompleteForm(ctx context.Context, id, token string, identity Identity) error

	GetByRenewalToken(ctx context.Context, token string) (*Client, error)
	// StartRenewal sets a fresh renewal token and clears any previous response
	// and the last email date
	StartRenewal(ctx context.Context, id, token string, expiresAt time.Time) error
	// RecordRenewalEmail stamps a delivered renewal email
	RecordRenewalEmail(ctx context.Context, id string, sentAt time.Time) error
	// RecordRenewalResponse stores the answer only if none was recorded for token;
	// otherwise it fails with ErrTokenConsumed
	RecordRenewalResponse(ctx context.Context, id, token string, wish bool, comment string, at time.Time) error

	// ListRenewalCandidates returns individual clients with status Client that have
	// not answered since yearStart
	ListRenewalCandidates(ctx context.Context, yearStart time.Time) ([]*Client, error)
	// ListRenewalReminders returns clients with a live unanswered renewal token whose
	// last email was sent before lastEmailBefore or never delivered
	ListRenewalReminders(ctx context.Context, now, lastEmailBefore time.Time) ([]*Client, error)
}

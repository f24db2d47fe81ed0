package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainAudit "github.com/tutordesk/tutordesk/internal/domain/audit"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	db "github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/types"
)

type auditRow struct {
	ID        string    `db:"id"`
	Source    string    `db:"source"`
	Event     string    `db:"event"`
	Payload   []byte    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

type auditRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewAuditRepository(client db.IClient, logger *logger.Logger) domainAudit.Repository {
	return &auditRepository{client: client, logger: logger}
}

func (r *auditRepository) Create(ctx context.Context, e *domainAudit.Entry) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO audit_logs (id, source, event, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Source, e.Event, payload, e.CreatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Impossible d'écrire le journal d'audit").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter *domainAudit.Filter) ([]*domainAudit.Entry, error) {
	conds := []string{"TRUE"}
	args := []any{}
	if filter == nil {
		filter = &domainAudit.Filter{}
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conds = append(conds, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.Event != "" {
		args = append(args, filter.Event)
		conds = append(conds, fmt.Sprintf("event = $%d", len(args)))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		conds = append(conds, fmt.Sprintf("(payload->>'procedure_id' = $%d OR payload->>'client_id' = $%d)", len(args), len(args)))
	}
	args = append(args, filter.GetLimit(), filter.GetOffset())
	query := fmt.Sprintf(`SELECT id, source, event, payload, created_at FROM audit_logs
		WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), len(args)-1, len(args))

	var rows []auditRow
	if err := r.client.Querier(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de lire le journal d'audit").
			Mark(ierr.ErrDatabase)
	}

	out := make([]*domainAudit.Entry, 0, len(rows))
	for _, row := range rows {
		e := &domainAudit.Entry{
			ID:        row.ID,
			Source:    types.AuditSource(row.Source),
			Event:     types.AuditEvent(row.Event),
			CreatedAt: row.CreatedAt,
		}
		if len(row.Payload) > 0 {
			if err := json.Unmarshal(row.Payload, &e.Payload); err != nil {
				r.logger.Warnw("unreadable audit payload", "audit_id", row.ID, "error", err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

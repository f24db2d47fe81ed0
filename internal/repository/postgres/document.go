package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	domainDocument "github.com/tutordesk/tutordesk/internal/domain/document"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	db "github.com/tutordesk/tutordesk/internal/postgres"
)

const documentColumns = `id, procedure_id, kind, title, storage_path, content_type, size, uploaded_by, created_at`

type documentRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewDocumentRepository(client db.IClient, logger *logger.Logger) domainDocument.Repository {
	return &documentRepository{client: client, logger: logger}
}

func (r *documentRepository) Create(ctx context.Context, d *domainDocument.Document) error {
	r.logger.Debugw("creating document", "document_id", d.ID, "procedure_id", d.ProcedureID, "kind", d.Kind)

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (:id, :procedure_id, :kind, :title, :storage_path, :content_type, :size, :uploaded_by, :created_at)`, d)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Impossible d'enregistrer le document").
			WithReportableDetails(map[string]any{"procedure_id": d.ProcedureID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id string) (*domainDocument.Document, error) {
	var d domainDocument.Document
	err := r.client.Querier(ctx).GetContext(ctx, &d,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("document not found").
				WithHint("Document non trouvé").
				WithReportableDetails(map[string]any{"document_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Impossible de charger le document").
			Mark(ierr.ErrDatabase)
	}
	return &d, nil
}

func (r *documentRepository) ListByProcedures(ctx context.Context, procedureIDs []string) ([]*domainDocument.Document, error) {
	if len(procedureIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+documentColumns+`
		FROM documents WHERE procedure_id IN (?) ORDER BY created_at`, procedureIDs)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	q := r.client.Querier(ctx)
	var out []*domainDocument.Document
	if err := q.SelectContext(ctx, &out, q.Rebind(query), args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de lister les documents").
			Mark(ierr.ErrDatabase)
	}
	return out, nil
}

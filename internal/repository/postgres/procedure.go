package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	domainProcedure "github.com/tutordesk/tutordesk/internal/domain/procedure"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	db "github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/types"
)

const procedureColumns = `p.id, p.client_id, p.procedure_type_id, pt.code AS type_code, p.status,
	p.signature_request_id, p.upload_token, p.upload_token_expires_at,
	p.download_token, p.download_token_expires_at, p.recipient_email,
	p.created_at, p.updated_at`

const procedureFrom = `procedures p JOIN procedure_types pt ON pt.id = p.procedure_type_id`

type procedureRow struct {
	ID                     string         `db:"id"`
	ClientID               string         `db:"client_id"`
	ProcedureTypeID        string         `db:"procedure_type_id"`
	TypeCode               string         `db:"type_code"`
	Status                 string         `db:"status"`
	SignatureRequestID     sql.NullString `db:"signature_request_id"`
	UploadToken            sql.NullString `db:"upload_token"`
	UploadTokenExpiresAt   sql.NullTime   `db:"upload_token_expires_at"`
	DownloadToken          sql.NullString `db:"download_token"`
	DownloadTokenExpiresAt sql.NullTime   `db:"download_token_expires_at"`
	RecipientEmail         string         `db:"recipient_email"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

func (r *procedureRow) toDomain() *domainProcedure.Procedure {
	return &domainProcedure.Procedure{
		ID:                     r.ID,
		ClientID:               r.ClientID,
		ProcedureTypeID:        r.ProcedureTypeID,
		TypeCode:               types.ProcedureTypeCode(r.TypeCode),
		Status:                 types.ProcedureStatus(r.Status),
		SignatureRequestID:     r.SignatureRequestID.String,
		UploadToken:            r.UploadToken.String,
		UploadTokenExpiresAt:   nullTimePtr(r.UploadTokenExpiresAt),
		DownloadToken:          r.DownloadToken.String,
		DownloadTokenExpiresAt: nullTimePtr(r.DownloadTokenExpiresAt),
		RecipientEmail:         r.RecipientEmail,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

type procedureRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewProcedureRepository(client db.IClient, logger *logger.Logger) domainProcedure.Repository {
	return &procedureRepository{client: client, logger: logger}
}

func (r *procedureRepository) GetType(ctx context.Context, code types.ProcedureTypeCode) (*domainProcedure.ProcedureType, error) {
	var pt domainProcedure.ProcedureType
	err := r.client.Querier(ctx).GetContext(ctx, &pt,
		`SELECT id, code, label FROM procedure_types WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainProcedure.ErrProcedureTypeNotFound(code)
		}
		return nil, ierr.WithError(err).
			WithHint("Impossible de charger le type de procédure").
			Mark(ierr.ErrDatabase)
	}
	return &pt, nil
}

func (r *procedureRepository) ListTypes(ctx context.Context) ([]*domainProcedure.ProcedureType, error) {
	var pts []*domainProcedure.ProcedureType
	if err := r.client.Querier(ctx).SelectContext(ctx, &pts,
		`SELECT id, code, label FROM procedure_types ORDER BY code`); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de lister les types de procédure").
			Mark(ierr.ErrDatabase)
	}
	return pts, nil
}

func (r *procedureRepository) Create(ctx context.Context, p *domainProcedure.Procedure) error {
	r.logger.Debugw("creating procedure", "procedure_id", p.ID, "client_id", p.ClientID, "type", p.TypeCode)

	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO procedures (id, client_id, procedure_type_id, status, signature_request_id,
			upload_token, upload_token_expires_at, download_token, download_token_expires_at,
			recipient_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.ClientID, p.ProcedureTypeID, p.Status, nullString(p.SignatureRequestID),
		nullString(p.UploadToken), p.UploadTokenExpiresAt,
		nullString(p.DownloadToken), p.DownloadTokenExpiresAt,
		p.RecipientEmail, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ierr.WithError(err).
				WithHint("Client non trouvé").
				WithReportableDetails(map[string]any{"client_id": p.ClientID}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Impossible de créer la procédure").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *procedureRepository) getOne(ctx context.Context, where string, arg any, notFound func() error) (*domainProcedure.Procedure, error) {
	var row procedureRow
	err := r.client.Querier(ctx).GetContext(ctx, &row,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, procedureColumns, procedureFrom, where), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		return nil, ierr.WithError(err).
			WithHint("Impossible de charger la procédure").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain(), nil
}

func (r *procedureRepository) Get(ctx context.Context, id string) (*domainProcedure.Procedure, error) {
	return r.getOne(ctx, "p.id = $1", id, func() error { return domainProcedure.ErrProcedureNotFound(id) })
}

func (r *procedureRepository) GetByUploadToken(ctx context.Context, token string) (*domainProcedure.Procedure, error) {
	return r.getOne(ctx, "p.upload_token = $1", token, types.ErrInvalidToken)
}

func (r *procedureRepository) GetByDownloadToken(ctx context.Context, token string) (*domainProcedure.Procedure, error) {
	return r.getOne(ctx, "p.download_token = $1", token, types.ErrInvalidToken)
}

func (r *procedureRepository) GetBySignatureRequestID(ctx context.Context, signatureRequestID string) (*domainProcedure.Procedure, error) {
	return r.getOne(ctx, "p.signature_request_id = $1", signatureRequestID, func() error {
		return ierr.NewError("no procedure for signature request").
			WithHint("Procédure non trouvée").
			WithReportableDetails(map[string]any{"signature_request_id": signatureRequestID}).
			Mark(ierr.ErrNotFound)
	})
}

func (r *procedureRepository) ListByClient(ctx context.Context, clientID string) ([]*domainProcedure.Procedure, error) {
	var rows []procedureRow
	err := r.client.Querier(ctx).SelectContext(ctx, &rows,
		fmt.Sprintf(`SELECT %s FROM %s WHERE p.client_id = $1 ORDER BY p.created_at DESC`, procedureColumns, procedureFrom),
		clientID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de lister les procédures").
			Mark(ierr.ErrDatabase)
	}
	return lo.Map(rows, func(row procedureRow, _ int) *domainProcedure.Procedure { return row.toDomain() }), nil
}

func (r *procedureRepository) GetLatestForClient(ctx context.Context, clientID string, code types.ProcedureTypeCode, statuses []types.ProcedureStatus) (*domainProcedure.Procedure, error) {
	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM %s WHERE p.client_id = ? AND pt.code = ? AND p.status IN (?)
			ORDER BY p.created_at DESC LIMIT 1`, procedureColumns, procedureFrom),
		clientID, code, statuses)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	q := r.client.Querier(ctx)
	var row procedureRow
	if err := q.GetContext(ctx, &row, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("no open procedure").
				WithHint("Aucune procédure en cours").
				WithReportableDetails(map[string]any{"client_id": clientID, "type": code}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Impossible de charger la procédure").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain(), nil
}

func (r *procedureRepository) UpdateStatus(ctx context.Context, p *domainProcedure.Procedure, from types.ProcedureStatus) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE procedures SET status = $3, signature_request_id = $4, updated_at = $5
		WHERE id = $1 AND status = $2`,
		p.ID, from, p.Status, nullString(p.SignatureRequestID), p.UpdatedAt)
	return expectOne(res, err, func() error {
		return ierr.NewError("procedure status changed concurrently").
			WithHint("La procédure a été modifiée entre-temps").
			WithReportableDetails(map[string]any{"procedure_id": p.ID, "expected_status": from}).
			Mark(ierr.ErrVersionConflict)
	}, "Impossible de mettre à jour la procédure")
}

func (r *procedureRepository) SetUploadToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE procedures SET upload_token = $2, upload_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1`, id, token, expiresAt)
	return expectOne(res, err, func() error { return domainProcedure.ErrProcedureNotFound(id) },
		"Impossible de mettre à jour la procédure")
}

func (r *procedureRepository) SetDownloadToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE procedures SET download_token = $2, download_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1`, id, token, expiresAt)
	return expectOne(res, err, func() error { return domainProcedure.ErrProcedureNotFound(id) },
		"Impossible de mettre à jour la procédure")
}

func (r *procedureRepository) AppendHistory(ctx context.Context, h *domainProcedure.StatusHistory) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO procedure_status_history (id, procedure_id, label, note, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		h.ID, h.ProcedureID, h.Label, h.Note, h.CreatedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Impossible d'enregistrer l'historique").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *procedureRepository) ListHistory(ctx context.Context, procedureIDs []string) ([]*domainProcedure.StatusHistory, error) {
	if len(procedureIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, procedure_id, label, note, created_at
		FROM procedure_status_history WHERE procedure_id IN (?) ORDER BY created_at`, procedureIDs)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	q := r.client.Querier(ctx)
	var out []*domainProcedure.StatusHistory
	if err := q.SelectContext(ctx, &out, q.Rebind(query), args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de charger l'historique").
			Mark(ierr.ErrDatabase)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

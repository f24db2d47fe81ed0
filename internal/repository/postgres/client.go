package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	domainClient "github.com/tutordesk/tutordesk/internal/domain/client"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	db "github.com/tutordesk/tutordesk/internal/postgres"
	"github.com/tutordesk/tutordesk/internal/types"
)

const clientColumns = `id, type_client, identity, sub_type, client_status, notes,
	form_token, form_token_expires_at,
	renewal_token, renewal_token_expires_at, renewal_last_email_at,
	renewal_wish, renewal_comment, renewal_responded_at,
	created_at, updated_at`

type clientRow struct {
	ID                    string           `db:"id"`
	TypeClient            types.ClientType `db:"type_client"`
	Identity              []byte           `db:"identity"`
	SubType               string           `db:"sub_type"`
	Status                string           `db:"client_status"`
	Notes                 string           `db:"notes"`
	FormToken             sql.NullString   `db:"form_token"`
	FormTokenExpiresAt    sql.NullTime     `db:"form_token_expires_at"`
	RenewalToken          sql.NullString   `db:"renewal_token"`
	RenewalTokenExpiresAt sql.NullTime     `db:"renewal_token_expires_at"`
	RenewalLastEmailAt    sql.NullTime     `db:"renewal_last_email_at"`
	RenewalWish           sql.NullBool     `db:"renewal_wish"`
	RenewalComment        string           `db:"renewal_comment"`
	RenewalRespondedAt    sql.NullTime     `db:"renewal_responded_at"`
	CreatedAt             time.Time        `db:"created_at"`
	UpdatedAt             time.Time        `db:"updated_at"`
}

func (r *clientRow) toDomain() (*domainClient.Client, error) {
	identity, err := domainClient.DecodeIdentity(r.TypeClient, r.Identity)
	if err != nil {
		return nil, err
	}
	c := &domainClient.Client{
		ID:                 r.ID,
		Identity:           identity,
		SubType:            r.SubType,
		Status:             types.ClientStatus(r.Status),
		Notes:              r.Notes,
		FormToken:          r.FormToken.String,
		FormTokenExpiresAt: nullTimePtr(r.FormTokenExpiresAt),
		Renewal: domainClient.Renewal{
			Token:          r.RenewalToken.String,
			TokenExpiresAt: nullTimePtr(r.RenewalTokenExpiresAt),
			LastEmailAt:    nullTimePtr(r.RenewalLastEmailAt),
			Comment:        r.RenewalComment,
			RespondedAt:    nullTimePtr(r.RenewalRespondedAt),
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.RenewalWish.Valid {
		c.Renewal.Wish = lo.ToPtr(r.RenewalWish.Bool)
	}
	return c, nil
}

type clientRepository struct {
	client db.IClient
	logger *logger.Logger
}

func NewClientRepository(client db.IClient, logger *logger.Logger) domainClient.Repository {
	return &clientRepository{client: client, logger: logger}
}

func (r *clientRepository) Create(ctx context.Context, c *domainClient.Client) error {
	r.logger.Debugw("creating client", "client_id", c.ID, "type_client", c.Type())

	identity, err := domainClient.EncodeIdentity(c.Identity)
	if err != nil {
		return err
	}

	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO clients (id, type_client, identity, sub_type, client_status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Type(), identity, c.SubType, c.Status, c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("Ce client existe déjà").
				WithReportableDetails(map[string]any{"client_id": c.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Impossible de créer le client").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *clientRepository) getOne(ctx context.Context, where string, arg any, notFound func() error) (*domainClient.Client, error) {
	var row clientRow
	err := r.client.Querier(ctx).GetContext(ctx, &row,
		fmt.Sprintf(`SELECT %s FROM clients WHERE %s`, clientColumns, where), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		return nil, ierr.WithError(err).
			WithHint("Impossible de charger le client").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain()
}

func (r *clientRepository) Get(ctx context.Context, id string) (*domainClient.Client, error) {
	return r.getOne(ctx, "id = $1", id, func() error {
		return domainClient.ErrClientNotFound(id)
	})
}

func (r *clientRepository) GetByFormToken(ctx context.Context, token string) (*domainClient.Client, error) {
	return r.getOne(ctx, "form_token = $1", token, types.ErrInvalidToken)
}

func (r *clientRepository) GetByRenewalToken(ctx context.Context, token string) (*domainClient.Client, error) {
	return r.getOne(ctx, "renewal_token = $1", token, types.ErrInvalidToken)
}

func buildClientWhere(filter *types.ClientFilter) (string, []any) {
	conds := []string{"TRUE"}
	args := []any{}
	if filter == nil {
		return conds[0], args
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type_client = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("client_status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("identity::text ILIKE $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (r *clientRepository) List(ctx context.Context, filter *types.ClientFilter) ([]*domainClient.Client, error) {
	where, args := buildClientWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY created_at DESC`, clientColumns, where)
	if filter != nil && filter.QueryFilter != nil {
		args = append(args, filter.GetLimit(), filter.GetOffset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return r.selectMany(ctx, query, args...)
}

func (r *clientRepository) selectMany(ctx context.Context, query string, args ...any) ([]*domainClient.Client, error) {
	var rows []clientRow
	if err := r.client.Querier(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de lister les clients").
			Mark(ierr.ErrDatabase)
	}
	out := make([]*domainClient.Client, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *clientRepository) Count(ctx context.Context, filter *types.ClientFilter) (int, error) {
	where, args := buildClientWhere(filter)
	var n int
	if err := r.client.Querier(ctx).GetContext(ctx, &n,
		fmt.Sprintf(`SELECT COUNT(*) FROM clients WHERE %s`, where), args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Impossible de compter les clients").
			Mark(ierr.ErrDatabase)
	}
	return n, nil
}

func (r *clientRepository) Update(ctx context.Context, c *domainClient.Client) error {
	identity, err := domainClient.EncodeIdentity(c.Identity)
	if err != nil {
		return err
	}
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE clients
		SET identity = $2, sub_type = $3, client_status = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, identity, c.SubType, c.Status, c.Notes, c.UpdatedAt,
	)
	return r.expectOne(res, err, func() error { return domainClient.ErrClientNotFound(c.ID) })
}

func (r *clientRepository) SetFormToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE clients SET form_token = $2, form_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1`, id, token, expiresAt)
	return r.expectOne(res, err, func() error { return domainClient.ErrClientNotFound(id) })
}

func (r *clientRepository) CompleteForm(ctx context.Context, id, token string, identity domainClient.Identity) error {
	data, err := domainClient.EncodeIdentity(identity)
	if err != nil {
		return err
	}
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE clients
		SET identity = $3, form_token = NULL, form_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND form_token = $2`, id, token, data)
	return r.expectOne(res, err, types.ErrTokenUsed)
}

func (r *clientRepository) StartRenewal(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE clients
		SET renewal_token = $2, renewal_token_expires_at = $3, renewal_last_email_at = NULL,
			renewal_wish = NULL, renewal_comment = '', renewal_responded_at = NULL, updated_at = NOW()
		WHERE id = $1`, id, token, expiresAt)
	return r.expectOne(res, err, func() error { return domainClient.ErrClientNotFound(id) })
}

func (r *clientRepository) RecordRenewalEmail(ctx context.Context, id string, sentAt time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE clients SET renewal_last_email_at = $2, updated_at = NOW() WHERE id = $1`, id, sentAt)
	return r.expectOne(res, err, func() error { return domainClient.ErrClientNotFound(id) })
}

func (r *clientRepository) RecordRenewalResponse(ctx context.Context, id, token string, wish bool, comment string, at time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE clients
		SET renewal_wish = $3, renewal_comment = $4, renewal_responded_at = $5, updated_at = NOW()
		WHERE id = $1 AND renewal_token = $2 AND renewal_responded_at IS NULL`,
		id, token, wish, comment, at)
	return r.expectOne(res, err, types.ErrAlreadyResponded)
}

func (r *clientRepository) ListRenewalCandidates(ctx context.Context, yearStart time.Time) ([]*domainClient.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients
		WHERE type_client = $1 AND client_status = $2
			AND (renewal_responded_at IS NULL OR renewal_responded_at < $3)
		ORDER BY created_at`, clientColumns)
	return r.selectMany(ctx, query, types.ClientTypeIndividual, types.ClientStatusClient, yearStart)
}

func (r *clientRepository) ListRenewalReminders(ctx context.Context, now, lastEmailBefore time.Time) ([]*domainClient.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients
		WHERE renewal_token IS NOT NULL
			AND renewal_token_expires_at >= $1
			AND renewal_responded_at IS NULL
			AND (renewal_last_email_at IS NULL OR renewal_last_email_at < $2)
		ORDER BY renewal_last_email_at`, clientColumns)
	return r.selectMany(ctx, query, now, lastEmailBefore)
}

// expectOne turns a zero-row UPDATE into onMiss()
func (r *clientRepository) expectOne(res sql.Result, err error, onMiss func() error) error {
	return expectOne(res, err, onMiss, "Impossible de mettre à jour le client")
}

func expectOne(res sql.Result, err error, onMiss func() error, hint string) error {
	if err != nil {
		return ierr.WithError(err).WithHint(hint).Mark(ierr.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).WithHint(hint).Mark(ierr.ErrDatabase)
	}
	if n == 0 {
		return onMiss()
	}
	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

package service

import (
	"context"
	"time"

	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// TokenService issues and validates the single-use links sent to clients
type TokenService interface {
	// IssueClientToken stores a fresh form or renewal token on the client.
	// Renewal tokens are issued by the renewal batch, which also resets the response.
	IssueClientToken(ctx context.Context, clientID string, scope types.TokenScope, ttl time.Duration) (*types.AccessToken, error)
	IssueProcedureToken(ctx context.Context, procedureID string, scope types.TokenScope, ttl time.Duration) (*types.AccessToken, error)
	ValidateClientToken(ctx context.Context, token string, scope types.TokenScope) (*client.Client, error)
	ValidateProcedureToken(ctx context.Context, token string, scope types.TokenScope) (*procedure.Procedure, error)
	// TTL returns the configured lifetime of scope
	TTL(scope types.TokenScope) time.Duration
}

type tokenService struct {
	ServiceParams
}

func NewTokenService(params ServiceParams) TokenService {
	return &tokenService{ServiceParams: params}
}

func (s *tokenService) TTL(scope types.TokenScope) time.Duration {
	cfg := s.Config.Tokens
	var ttl, fallback time.Duration
	switch scope {
	case types.TokenScopeForm:
		ttl, fallback = cfg.FormTTL, types.FormTokenTTL
	case types.TokenScopeUpload:
		ttl, fallback = cfg.UploadTTL, types.UploadTokenTTL
	case types.TokenScopeDownload:
		ttl, fallback = cfg.DownloadTTL, types.DownloadTokenTTL
	case types.TokenScopeRenewal:
		ttl, fallback = cfg.RenewalTTL, types.RenewalTokenTTL
	}
	if ttl <= 0 {
		return fallback
	}
	return ttl
}

func (s *tokenService) IssueClientToken(ctx context.Context, clientID string, scope types.TokenScope, ttl time.Duration) (*types.AccessToken, error) {
	if scope != types.TokenScopeForm {
		return nil, errUnsupportedScope(scope)
	}
	token, err := types.NewAccessToken(ttl, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.ClientRepo.SetFormToken(ctx, clientID, token.Value, token.ExpiresAt); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *tokenService) IssueProcedureToken(ctx context.Context, procedureID string, scope types.TokenScope, ttl time.Duration) (*types.AccessToken, error) {
	token, err := types.NewAccessToken(ttl, s.now())
	if err != nil {
		return nil, err
	}
	switch scope {
	case types.TokenScopeUpload:
		err = s.ProcedureRepo.SetUploadToken(ctx, procedureID, token.Value, token.ExpiresAt)
	case types.TokenScopeDownload:
		err = s.ProcedureRepo.SetDownloadToken(ctx, procedureID, token.Value, token.ExpiresAt)
	default:
		return nil, errUnsupportedScope(scope)
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (s *tokenService) ValidateClientToken(ctx context.Context, token string, scope types.TokenScope) (*client.Client, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	var (
		c   *client.Client
		err error
	)
	switch scope {
	case types.TokenScopeForm:
		c, err = s.ClientRepo.GetByFormToken(ctx, token)
	case types.TokenScopeRenewal:
		c, err = s.ClientRepo.GetByRenewalToken(ctx, token)
	default:
		return nil, errUnsupportedScope(scope)
	}
	if err != nil {
		return nil, err
	}

	switch scope {
	case types.TokenScopeForm:
		err = types.CheckExpiry(c.FormTokenExpiresAt, s.now())
	case types.TokenScopeRenewal:
		err = types.CheckExpiry(c.Renewal.TokenExpiresAt, s.now())
		if err == nil && c.Renewal.RespondedAt != nil {
			err = types.ErrAlreadyResponded()
		}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *tokenService) ValidateProcedureToken(ctx context.Context, token string, scope types.TokenScope) (*procedure.Procedure, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	var (
		p   *procedure.Procedure
		err error
	)
	switch scope {
	case types.TokenScopeUpload:
		p, err = s.ProcedureRepo.GetByUploadToken(ctx, token)
		if err == nil {
			err = types.CheckExpiry(p.UploadTokenExpiresAt, s.now())
		}
	case types.TokenScopeDownload:
		p, err = s.ProcedureRepo.GetByDownloadToken(ctx, token)
		if err == nil {
			err = types.CheckExpiry(p.DownloadTokenExpiresAt, s.now())
		}
	default:
		return nil, errUnsupportedScope(scope)
	}
	if err != nil {
		return nil, err
	}
	if p.Status == types.ProcedureStatusClosed {
		return nil, ierr.NewError("procedure closed").
			WithHint("Ce lien n'est plus actif").
			WithReportableDetails(map[string]any{"procedure_id": p.ID}).
			Mark(ierr.ErrTokenExpired)
	}
	return p, nil
}

func requireToken(token string) error {
	if token == "" {
		return ierr.NewError("token is required").
			WithHint("Lien invalide : jeton manquant").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func errUnsupportedScope(scope types.TokenScope) error {
	return ierr.NewError("unsupported token scope").
		WithReportableDetails(map[string]any{"scope": scope}).
		Mark(ierr.ErrInternal)
}

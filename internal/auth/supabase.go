package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	supabase "github.com/nedpals/supabase-go"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// Claims identifies the admin behind a session token
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
}

// Session is returned by Login
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

// Provider authenticates back-office users
type Provider interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

type supabaseAuth struct {
	secret string
	client *supabase.Client
	logger *logger.Logger
}

// NewSupabaseAuth verifies Supabase session JWTs locally with the project secret.
// Login is delegated to Supabase.
func NewSupabaseAuth(cfg *config.Configuration, log *logger.Logger) Provider {
	return &supabaseAuth{
		secret: cfg.Auth.Secret,
		client: supabase.CreateClient(cfg.Auth.Supabase.BaseURL, cfg.Auth.Supabase.ServiceKey),
		logger: log,
	}
}

func (s *supabaseAuth) Login(ctx context.Context, email, password string) (*Session, error) {
	details, err := s.client.Auth.SignIn(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		s.logger.Warnw("admin login failed", "email", email, "error", err)
		return nil, ierr.WithError(err).
			WithHint("Identifiants invalides").
			Mark(ierr.ErrUnauthorized)
	}
	return &Session{
		AccessToken:  details.AccessToken,
		RefreshToken: details.RefreshToken,
		ExpiresIn:    details.ExpiresIn,
		UserID:       details.User.ID,
		Email:        details.User.Email,
	}, nil
}

func (s *supabaseAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ierr.NewError("missing token").
			WithHint("Authentification requise").
			Mark(ierr.ErrUnauthorized)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithReportableDetails(map[string]any{"signing_method": t.Method.Alg()}).
				Mark(ierr.ErrUnauthorized)
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Session invalide ou expirée").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Session invalide ou expirée").
			Mark(ierr.ErrUnauthorized)
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ierr.NewError("token missing subject").
			WithHint("Session invalide ou expirée").
			Mark(ierr.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	// Anonymous Supabase sessions carry a valid signature but no user
	if role == "anon" {
		return nil, ierr.NewError("anonymous token").
			WithHint("Accès réservé à l'administration").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{UserID: userID, Email: email, Role: role}, nil
}

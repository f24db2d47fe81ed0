package types

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

// TokenScope says which record and which field a token lives on
type TokenScope string

const (
	TokenScopeForm     TokenScope = "form"
	TokenScopeRenewal  TokenScope = "renewal"
	TokenScopeUpload   TokenScope = "upload"
	TokenScopeDownload TokenScope = "download"
)

const (
	TokenBytes = 32

	FormTokenTTL     = 7 * 24 * time.Hour
	UploadTokenTTL   = 7 * 24 * time.Hour
	DownloadTokenTTL = 14 * 24 * time.Hour
	RenewalTokenTTL  = 30 * 24 * time.Hour
	SignedURLTTL     = time.Hour
)

// AccessToken is an opaque random string with an absolute expiry
type AccessToken struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAccessToken draws 256 bits from crypto/rand
func NewAccessToken(ttl time.Duration, now time.Time) (*AccessToken, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible de générer le lien").
			Mark(ierr.ErrSystem)
	}
	return &AccessToken{
		Value:     base64.RawURLEncoding.EncodeToString(buf),
		ExpiresAt: now.Add(ttl).UTC(),
	}, nil
}

// CheckExpiry fails with ErrTokenExpired once now is past expiresAt.
// A nil expiry is treated as already expired.
func CheckExpiry(expiresAt *time.Time, now time.Time) error {
	if expiresAt == nil || now.After(*expiresAt) {
		return ierr.NewError("token expired").
			WithHint("Ce lien a expiré").
			Mark(ierr.ErrTokenExpired)
	}
	return nil
}

// ErrInvalidToken is returned when no record carries the token
func ErrInvalidToken() error {
	return ierr.NewError("token not found").
		WithHint("Lien invalide").
		Mark(ierr.ErrTokenNotFound)
}

// ErrTokenUsed is returned when a single-use token lost a compare-and-swap
func ErrTokenUsed() error {
	return ierr.NewError("token already used").
		WithHint("Ce lien a déjà été utilisé").
		Mark(ierr.ErrTokenConsumed)
}

func ErrAlreadyResponded() error {
	return ierr.NewError("renewal already answered").
		WithHint("Vous avez déjà répondu").
		Mark(ierr.ErrTokenConsumed)
}

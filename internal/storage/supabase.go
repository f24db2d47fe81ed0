package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// SupabaseStore keeps files in a private Supabase Storage bucket
type SupabaseStore struct {
	client  *supabase.Client
	baseURL string
	bucket  string
	logger  *logger.Logger
}

func NewSupabaseStore(cfg *config.Configuration, log *logger.Logger) *SupabaseStore {
	sb := cfg.Storage.Supabase
	if sb.BaseURL == "" {
		sb = cfg.Auth.Supabase
	}
	return &SupabaseStore{
		client:  supabase.CreateClient(sb.BaseURL, sb.ServiceKey),
		baseURL: strings.TrimRight(sb.BaseURL, "/"),
		bucket:  cfg.Storage.Bucket,
		logger:  log,
	}
}

// Upload stores data at objectPath. The client library panics on transport
// errors, so those are recovered into ErrHTTPClient.
func (s *SupabaseStore) Upload(ctx context.Context, objectPath, contentType string, data io.Reader) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ierr.NewError(fmt.Sprintf("supabase upload failed: %v", r)).
				WithHint("Le stockage du fichier a échoué").
				WithReportableDetails(map[string]any{"path": objectPath}).
				Mark(ierr.ErrHTTPClient)
		}
	}()

	resp := s.client.Storage.From(s.bucket).Upload(objectPath, data, nil)
	if resp.Key == "" {
		return ierr.NewError("supabase upload rejected: " + resp.Message).
			WithHint("Le stockage du fichier a échoué").
			WithReportableDetails(map[string]any{"path": objectPath}).
			Mark(ierr.ErrHTTPClient)
	}

	s.logger.Debugw("stored object", "bucket", s.bucket, "path", objectPath, "content_type", contentType)
	return nil
}

func (s *SupabaseStore) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (u string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ierr.NewError(fmt.Sprintf("supabase sign failed: %v", r)).
				WithHint("Impossible de générer le lien de téléchargement").
				Mark(ierr.ErrHTTPClient)
		}
	}()

	resp := s.client.Storage.From(s.bucket).CreateSignedUrl(objectPath, int(ttl.Seconds()))
	if resp.SignedUrl == "" {
		return "", ierr.NewError("supabase returned no signed url").
			WithHint("Impossible de générer le lien de téléchargement").
			WithReportableDetails(map[string]any{"path": objectPath}).
			Mark(ierr.ErrHTTPClient)
	}
	// The API answers with a path relative to the storage root
	if strings.HasPrefix(resp.SignedUrl, "/") {
		return s.baseURL + "/storage/v1" + resp.SignedUrl, nil
	}
	return resp.SignedUrl, nil
}

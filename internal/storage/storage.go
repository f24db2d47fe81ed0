package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// BlobStore keeps document files. Objects are private; reads go through
// short-lived signed URLs.
type BlobStore interface {
	Upload(ctx context.Context, objectPath, contentType string, data io.Reader) error
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}

// NewBlobStore picks the backend named by storage.provider
func NewBlobStore(cfg *config.Configuration, log *logger.Logger) (BlobStore, error) {
	switch cfg.Storage.Provider {
	case "s3":
		return NewS3Store(context.Background(), cfg, log)
	default:
		return NewSupabaseStore(cfg, log), nil
	}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectPath builds "<procedureID>/<documentID>-<sanitized file name>"
func ObjectPath(procedureID, documentID, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s/%s-%s", procedureID, documentID, base)
}

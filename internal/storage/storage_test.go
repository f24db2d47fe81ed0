package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/logger"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "proc_1/doc_1-mon_CV.pdf", ObjectPath("proc_1", "doc_1", "mon CV.pdf"))
	assert.Equal(t, "proc_1/doc_1-passwd", ObjectPath("proc_1", "doc_1", "../../etc/passwd"))
	assert.Equal(t, "proc_1/doc_1-x.pdf", ObjectPath("proc_1", "doc_1", `C:\Users\x.pdf`))
	assert.Equal(t, "proc_1/doc_1-file", ObjectPath("proc_1", "doc_1", ""))
}

func TestS3Store_SignedURL(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.Provider = "s3"
	cfg.Storage.S3.AccessKeyID = "AKIDEXAMPLE"
	cfg.Storage.S3.SecretAccessKey = "secret"
	cfg.Storage.S3.Endpoint = "http://localhost:9000"
	cfg.Storage.S3.UsePathStyle = true

	store, err := NewBlobStore(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	// Presigning is local; no request leaves the process
	u, err := store.SignedURL(context.Background(), "proc_1/doc_1-a.pdf", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/documents/proc_1/doc_1-a.pdf?"))
	assert.Contains(t, u, "X-Amz-Expires=3600")
}

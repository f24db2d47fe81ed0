package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

func newTestClient() *Client {
	cfg := config.GetDefaultConfig()
	cfg.HTTPClient.RetryWaitMin = time.Millisecond
	cfg.HTTPClient.RetryWaitMax = 2 * time.Millisecond
	return NewClient(cfg, logger.NewNopLogger())
}

func TestClient_RetriesIdempotentOnly(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient()

	resp, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, 0)
	resp, err = c.Do(context.Background(), http.MethodPost, srv.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_HeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	h := http.Header{}
	h.Set("Authorization", "Bearer k")
	resp, err := newTestClient().Do(context.Background(), http.MethodGet, srv.URL, h, nil)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestUpstreamError(t *testing.T) {
	err := UpstreamError("Yousign", &Response{StatusCode: 422, Body: []byte("bad signer")})
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Contains(t, err.Error(), "bad signer")
	assert.Equal(t, "Erreur du service Yousign", ierr.GetHint(err))
}

func TestUpstreamError_TruncatesOnCharacters(t *testing.T) {
	body := strings.Repeat("é", maxUpstreamText+100)
	err := UpstreamError("Brevo", &Response{StatusCode: 400, Body: []byte(body)})

	msg := err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Contains(t, msg, strings.Repeat("é", maxUpstreamText))
	assert.NotContains(t, msg, strings.Repeat("é", maxUpstreamText+1))
}

func TestClient_Unreachable(t *testing.T) {
	_, err := newTestClient().Do(context.Background(), http.MethodPost, "http://127.0.0.1:1", nil, nil)
	assert.True(t, ierr.IsHTTPClient(err))
}

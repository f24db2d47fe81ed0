package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/auth"
	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct{}

func (stubProvider) Login(context.Context, string, string) (*auth.Session, error) {
	return nil, ierr.NewError("not implemented").Mark(ierr.ErrInternal)
}

func (stubProvider) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if token != "Bearer good" {
		return nil, ierr.NewError("bad token").WithHint("Session invalide ou expirée").Mark(ierr.ErrUnauthorized)
	}
	return &auth.Claims{UserID: "user-1", Email: "admin@tutordesk.fr"}, nil
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logger.NewNopLogger()))
	r.GET("/missing", func(c *gin.Context) {
		c.Error(ierr.NewError("client not found").WithHint("Client non trouvé").Mark(ierr.ErrNotFound))
	})
	r.GET("/expired", func(c *gin.Context) {
		c.Error(types.ErrTokenUsed())
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(ierr.NewError("db down").Mark(ierr.ErrDatabase))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Client non trouvé", resp.Error)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/expired", nil))
	assert.Equal(t, http.StatusGone, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, decode(t, w).Error, "db down")
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, types.GetRequestID(c.Request.Context()))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(types.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(types.HeaderRequestID, "req-42")
	w = serve(r, req)
	assert.Equal(t, "req-42", w.Body.String())
}

func TestAuthenticateMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(AuthenticateMiddleware(stubProvider{}, logger.NewNopLogger()))
	r.GET("/v1/me", func(c *gin.Context) {
		c.String(http.StatusOK, types.GetActor(c.Request.Context()))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set(types.HeaderAuthorization, "Bearer good")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@tutordesk.fr", w.Body.String())
}

func TestCronAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "match", secret: "s3cret", header: "Bearer s3cret", want: http.StatusOK},
		{name: "mismatch", secret: "s3cret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", secret: "s3cret", want: http.StatusUnauthorized},
		{name: "no secret configured", secret: "", header: "Bearer ", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/cron", CronAuthMiddleware(tt.secret), func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(http.MethodGet, "/cron", nil)
			if tt.header != "" {
				req.Header.Set(types.HeaderAuthorization, tt.header)
			}
			assert.Equal(t, tt.want, serve(r, req).Code)
		})
	}
}

func TestWebhookSecretMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/hook", WebhookSecretMiddleware("hook-secret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(types.HeaderWebhookSecret, "hook-secret")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(types.HeaderWebhookSecret, "other")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("3.3.3.3")
	assert.Len(t, l.visitors, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}

	r := gin.New()
	r.Use(RateLimitMiddleware(cfg))
	r.GET("/public/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/public/x", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/public/x", nil)).Code)
}

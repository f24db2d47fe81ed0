package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutordesk/tutordesk/internal/auth"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

// AuthenticateMiddleware requires a valid admin session token
func AuthenticateMiddleware(provider auth.Provider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := provider.ValidateToken(c.Request.Context(), c.GetHeader(types.HeaderAuthorization))
		if err != nil {
			log.WithContext(c.Request.Context()).Debugw("rejected admin request", "error", err)
			abortWithError(c, err)
			return
		}

		ctx := context.WithValue(c.Request.Context(), types.CtxUserID, claims.UserID)
		ctx = context.WithValue(ctx, types.CtxUserEmail, claims.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CronAuthMiddleware requires "Authorization: Bearer <secret>"
func CronAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader(types.HeaderAuthorization), "Bearer ")
		if !secretMatches(secret, got) {
			abortWithError(c, ierr.NewError("invalid cron secret").
				WithHint("Non autorisé").
				Mark(ierr.ErrUnauthorized))
			return
		}
		c.Next()
	}
}

// WebhookSecretMiddleware requires the shared secret in X-Webhook-Secret
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !secretMatches(secret, c.GetHeader(types.HeaderWebhookSecret)) {
			abortWithError(c, ierr.NewError("invalid webhook secret").
				WithHint("Non autorisé").
				Mark(ierr.ErrUnauthorized))
			return
		}
		c.Next()
	}
}

// secretMatches fails closed when no secret is configured
func secretMatches(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
}

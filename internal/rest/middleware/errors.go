package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// ErrorHandler writes the uniform error envelope for the last error a handler pushed with c.Error
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= http.StatusInternalServerError {
			log.WithContext(c.Request.Context()).Errorw("request failed",
				"error", err,
				"path", c.Request.URL.Path,
			)
			captureServerError(c, err)
		}
		c.JSON(status, ierr.NewErrorResponse(err))
	}
}

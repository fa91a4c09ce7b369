package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "package-tracking/pkg/errors"
	"package-tracking/pkg/utils"
)

const (
	DefaultMaxRequestSize = 1 << 20
)

// RequestSizeLimitMiddleware limits the size of incoming requests to maxSize bytes.
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.AbortWithError(c, http.StatusRequestEntityTooLarge, appErrors.CodeBadRequest, "Request body too large")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

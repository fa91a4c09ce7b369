package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"package-tracking/internal/config"
	"package-tracking/internal/logger"
	appErrors "package-tracking/pkg/errors"
	"package-tracking/pkg/utils"
)

const (
	AdminKeyHeader = "X-Admin-Key"
	AdminKeyQuery  = "adminKey"
)

// AdminKeyMiddleware accepts the admin secret from the X-Admin-Key header or
// the adminKey query parameter. A configured ADMIN_KEY_HASH takes precedence
// over the plain ADMIN_KEY.
func AdminKeyMiddleware(cfg *config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(AdminKeyHeader)
		if presented == "" {
			presented = c.Query(AdminKeyQuery)
		}

		if presented == "" || !adminKeyMatches(cfg, presented) {
			logger.WithRequestID(GetRequestID(c)).Warn("Rejected admin request",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			utils.AbortWithError(c, http.StatusUnauthorized, appErrors.CodeUnauthorized, "Unauthorized")
			return
		}

		c.Next()
	}
}

func adminKeyMatches(cfg *config.AdminConfig, presented string) bool {
	if cfg.KeyHash != "" {
		return utils.CheckSecret(cfg.KeyHash, presented)
	}
	return utils.SecretEqual(cfg.Key, presented)
}

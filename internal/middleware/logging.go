package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"package-tracking/internal/logger"
)

// LoggingMiddleware logs one structured line per completed request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method
		ip := c.ClientIP()
		userAgent := c.Request.UserAgent()

		requestID := GetRequestID(c)
		log := logger.WithRequestID(requestID)

		c.Next()

		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", redactAdminKey(query)),
			zap.String("ip", ip),
			zap.String("user_agent", userAgent),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", time.Since(start)),
		}

		if errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		switch {
		case statusCode >= 500:
			log.Error("Request completed with server error", fields...)
		case statusCode >= 400:
			log.Warn("Request completed with client error", fields...)
		default:
			log.Info("Request completed successfully", fields...)
		}
	}
}

// redactAdminKey masks the adminKey query value.
func redactAdminKey(rawQuery string) string {
	if rawQuery == "" {
		return rawQuery
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil || !values.Has(AdminKeyQuery) {
		return rawQuery
	}
	values.Set(AdminKeyQuery, "REDACTED")
	return values.Encode()
}

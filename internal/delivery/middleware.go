package delivery

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
	ctxUserID      = "userID"
	ctxIsAdmin     = "isAdmin"
	roleAdmin      = "admin"
)

// Identity reads the caller identity forwarded by the gateway. Requests
// without an X-User-ID header pass through anonymous.
func Identity(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(headerUserID); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				log.Warnf("Handler: Invalid X-User-ID header value: %s", raw)
				c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Status: "Fail", Message: "Invalid user identification data"})
				return
			}
			c.Set(ctxUserID, userID)
		}
		c.Set(ctxIsAdmin, strings.EqualFold(c.GetHeader(headerUserRole), roleAdmin))
		c.Next()
	}
}

func RequireUser(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			log.Warnf("Handler: X-User-ID header is missing for %s %s", c.Request.Method, c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Status: "Fail", Message: "User identification missing"})
			return
		}
		c.Next()
	}
}

func RequireAdmin(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(c) {
			log.Warnf("Handler: Non-admin caller rejected for %s %s", c.Request.Method, c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, Response{Status: "Fail", Message: "Admin role required"})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func isAdmin(c *gin.Context) bool {
	return c.GetBool(ctxIsAdmin)
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
		})
		if id, ok := c.Get(ctxUserID); ok {
			entry = entry.WithField("user_id", id)
		}

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
		case statusCode >= 500:
			entry.Error("Request completed with server error")
		case statusCode >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"greenidle/pkg/config"
	"greenidle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards administrative endpoints. The key is supplied via
// the X-Admin-Key header or the admin_key query parameter. An empty
// configured key disables the admin surface entirely.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.GlobalConfig.Server.AdminKey
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin interface disabled"})
			return
		}

		supplied := c.GetHeader("X-Admin-Key")
		if supplied == "" {
			supplied = c.Query("admin_key")
		}

		if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
			logger.WarnCtx(c.Request.Context(), "admin check failed, ip: %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}

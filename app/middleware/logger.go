package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/pretty"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Capture POST bodies for the access log
		var bodyStr string
		if c.Request.Method == http.MethodPost {
			bodyStr = getRequestBody(c)
		}

		c.Next()

		// Skip logging for 404 requests
		if c.Writer.Status() == http.StatusNotFound {
			return
		}

		latency := time.Since(startTime)

		logMsg := fmt.Sprintf("[HTTP] %v | %3d | %13v | %15s | %s | %s",
			startTime.Format("2006/01/02 - 15:04:05"),
			c.Writer.Status(),
			latency,
			c.ClientIP(),
			c.Request.Method,
			c.Request.RequestURI,
		)

		if bodyStr != "" {
			logMsg += fmt.Sprintf("\nRequest Body: %s", bodyStr)
		}

		fmt.Println(logMsg)
	}
}

// getRequestBody gets request body content
func getRequestBody(c *gin.Context) string {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
		// Reset request body since reading it clears it
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}
	return CompressBody(string(bodyBytes))
}

// CompressBody compresses JSON using pretty package
func CompressBody(body string) string {
	if len(body) == 0 {
		return ""
	}

	// ugly=true removes all whitespace
	compressed := pretty.Ugly([]byte(body))
	if len(compressed) > 1000 {
		return string(compressed[:1000]) + "..."
	}
	return string(compressed)
}

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"greenidle/internal/model"
	"greenidle/internal/service"
	"greenidle/internal/store"
	"greenidle/pkg/config"
	"greenidle/pkg/logger"
	"greenidle/pkg/metrics"
	"greenidle/pkg/ratelimit"
	"greenidle/pkg/signing"

	"github.com/gin-gonic/gin"
)

// authResultKey gin context key holding the gateway's *model.AuthResult
const authResultKey = "auth_result"

// Gateway authenticates every client-facing request. Requests carrying
// both a client id and a body signature are verified against the
// credential store; requests carrying neither run in legacy mode under
// a tighter per-address rate limit. Partial credentials are never
// accepted. Blacklisted source addresses are rejected before any other
// work.
type Gateway struct {
	credentials *store.CredentialStore
	limiter     *ratelimit.Limiter
}

// NewGateway creates an auth gateway over the given stores.
func NewGateway(credentials *store.CredentialStore, limiter *ratelimit.Limiter) *Gateway {
	return &Gateway{credentials: credentials, limiter: limiter}
}

// Handler returns the gin middleware implementing the gateway.
func (g *Gateway) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.GlobalConfig.Auth
		sourceIP := c.ClientIP()

		// Blacklist short-circuits everything else.
		for _, blocked := range cfg.Blacklist {
			if sourceIP == blocked {
				metrics.AuthRequests.WithLabelValues("forbidden").Inc()
				logger.WarnCtx(c.Request.Context(), "blacklisted source rejected, ip: %s", sourceIP)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		clientID := c.GetHeader(service.HeaderClientID)
		signature := c.GetHeader(service.HeaderSignature)

		// Legacy mode: no credentials at all, per-address limit.
		if clientID == "" && signature == "" {
			if !g.limiter.Allow("legacy:"+sourceIP, cfg.LegacyRate.Limit, window(cfg.LegacyRate)) {
				metrics.AuthRequests.WithLabelValues("rate_limited").Inc()
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}
			metrics.AuthRequests.WithLabelValues("legacy").Inc()
			c.Set(authResultKey, &model.AuthResult{Mode: model.AuthModeLegacy})
			c.Next()
			return
		}

		// Exactly one of identity/signature is never accepted.
		if clientID == "" || signature == "" {
			metrics.AuthRequests.WithLabelValues("unauthorized").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "partial credentials"})
			return
		}

		key, ok := g.credentials.Key(clientID)
		if !ok {
			metrics.AuthRequests.WithLabelValues("unauthorized").Inc()
			logger.WarnCtx(c.Request.Context(), "unknown client id, client_id: %s, ip: %s", clientID, sourceIP)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// The signature covers the exact raw body, so the check is
		// independent of field ordering or encoding.
		body := readBody(c)
		if !signing.Verify(key, body, signature) {
			metrics.AuthRequests.WithLabelValues("unauthorized").Inc()
			logger.WarnCtx(c.Request.Context(), "signature mismatch, client_id: %s, ip: %s", clientID, sourceIP)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !g.limiter.Allow("client:"+clientID, cfg.SignedRate.Limit, window(cfg.SignedRate)) {
			metrics.AuthRequests.WithLabelValues("rate_limited").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		// Keep the machine -> client binding current.
		if machineID := declaredMachineID(c, body); machineID != "" {
			g.credentials.BindMachine(machineID, clientID)
		}

		metrics.AuthRequests.WithLabelValues("signed").Inc()
		c.Set(authResultKey, &model.AuthResult{Mode: model.AuthModeSigned, ClientID: clientID})
		c.Next()
	}
}

// RegisterLimit applies the registration window on top of the gateway.
// Keyed by source address so a single host cannot mint credentials in
// a loop.
func (g *Gateway) RegisterLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.GlobalConfig.Auth
		if !g.limiter.Allow("register:"+c.ClientIP(), cfg.RegisterRate.Limit, window(cfg.RegisterRate)) {
			metrics.AuthRequests.WithLabelValues("rate_limited").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// AuthResult returns the gateway outcome stored on the context.
func AuthResult(c *gin.Context) *model.AuthResult {
	if v, ok := c.Get(authResultKey); ok {
		if result, ok := v.(*model.AuthResult); ok {
			return result
		}
	}
	return &model.AuthResult{Mode: model.AuthModeLegacy}
}

// readBody consumes and restores the request body so handlers can
// still bind it.
func readBody(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	return body
}

// declaredMachineID pulls the machine id a request claims to act for,
// from the query string or the JSON body.
func declaredMachineID(c *gin.Context, body []byte) string {
	if id := c.Query("machine_id"); id != "" {
		return id
	}
	if len(body) == 0 {
		return ""
	}
	var probe struct {
		MachineID string `json:"machine_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.MachineID
}

func window(rate config.RateConfig) time.Duration {
	return time.Duration(rate.WindowSeconds) * time.Second
}

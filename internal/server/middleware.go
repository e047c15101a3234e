package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonathan/creative-compliance/internal/server/ratelimit"
)

// withCORS adds CORS headers
func (s *Server) withCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// withLogging adds request logging
func (s *Server) withLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// withBodyLimit caps request bodies
func (s *Server) withBodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}
		c.Next()
	}
}

// withRateLimit rejects clients over their per-endpoint budget
func (s *Server) withRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, info := s.deps.Limiter.Allow(c.ClientIP(), c.Request.URL.Path, c.Request.Method)
		setRateLimitHeaders(c, info)
		if !allowed {
			s.rateLimitResponse(c, info)
			return
		}
		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *gin.Context, info ratelimit.Info) {
	if info.Limit > 0 {
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(c *gin.Context, info ratelimit.Info) {
	body := gin.H{
		"error": APIError{
			Code:    "rate_limit_exceeded",
			Message: "Rate limit exceeded. Please try again later.",
		},
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if secs := int(info.RetryAfter.Seconds()); info.RetryAfter > 0 {
		if secs == 0 {
			secs = 1
		}
		body["retry_after"] = secs
		c.Header("Retry-After", fmt.Sprintf("%d", secs))
	}

	s.log.Warn("rate limit exceeded", "client", c.ClientIP(), "path", c.Request.URL.Path, "limit", info.Limit)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
}

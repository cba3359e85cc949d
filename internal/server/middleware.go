package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"readsync/internal/apperr"
)

const (
	requestIDHeader = "X-Request-Id"
	ctxRequestIDKey = "request_id"
)

// requestID keeps a caller-supplied X-Request-Id or assigns a new one.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestIDKey),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		s.writeError(c, apperr.Internal(fmt.Errorf("panic: %v", rec)))
		c.Abort()
	})
}

// rateLimit counts attempts per route and client IP. It is a no-op without a
// limiter.
func (s *Server) rateLimit(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		if !s.limiter.Allow(c.Request.Context(), route+"|"+c.ClientIP()) {
			s.writeError(c, apperr.RateLimited("Too many attempts, try again later."))
			c.Abort()
			return
		}
		c.Next()
	}
}

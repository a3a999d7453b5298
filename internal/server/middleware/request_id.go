// file: internal/server/middleware/request_id.go
// version: 1.0.0
// guid: 6f8a0c2e-4b1d-4e3f-a5c7-9d1b3f5a7c24

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const contextRequestIDKey = "request_id"

// maxInboundIDLen bounds a caller-supplied id.
const maxInboundIDLen = 128

// RequestID keeps a caller's X-Request-ID or assigns a fresh UUID, stores it
// in the context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxInboundIDLen {
			id = uuid.NewString()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id RequestID assigned, or "".
func GetRequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(contextRequestIDKey)
}

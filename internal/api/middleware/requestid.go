package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the id.RequestID
	RequestIDKey = "request_id"
)

// RequestID tags every request with a req_ ULID. A well-formed id sent by
// the client is reused so the browser and the logs agree.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := id.RequestID(c.GetHeader(RequestIDHeader))
		if id.CheckPrefixed(string(rid), id.RequestPrefix) != nil {
			rid = id.NewRequestID()
		}
		c.Set(RequestIDKey, rid)
		c.Header(RequestIDHeader, string(rid))
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "" when the
// middleware is not installed.
func GetRequestID(c *gin.Context) id.RequestID {
	if v, ok := c.Get(RequestIDKey); ok {
		if rid, ok := v.(id.RequestID); ok {
			return rid
		}
	}
	return ""
}

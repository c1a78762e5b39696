package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecoveryWithLog converts a panic in a todo handler into a 500 whose body
// carries the request ID, so a client report can be matched to the log line.
// gin's recovery writes the stack trace; this adds the request context.
func RecoveryWithLog() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(gin.DefaultErrorWriter, func(c *gin.Context, recovered any) {
		requestID := c.GetString(RequestIDKey)
		log.Printf("❌ %s %s panicked (request_id=%s): %v", c.Request.Method, c.Request.URL.Path, requestID, recovered)

		body := gin.H{"detail": "Internal Server Error"}
		if requestID != "" {
			body["request_id"] = requestID
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

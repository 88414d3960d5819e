package server

import (
	"net/http"
	"time"

	"github.com/aatumaykin/taskpoll/internal/constants"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation id of a request.
const HeaderRequestID = constants.HeaderRequestID

const ctxRequestID = "request_id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// requestLogger logs one line per request. Long polls that end in a 307
// are logged at debug level since they are the normal idle cycle.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []logger.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: c.Request.URL.Path},
			{Key: "status", Value: status},
			{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
			{Key: "request_id", Value: c.GetString(ctxRequestID)},
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.WarnCtx(c.Request.Context(), "request failed", fields...)
		case status == http.StatusTemporaryRedirect:
			log.DebugCtx(c.Request.Context(), "long poll expired", fields...)
		default:
			log.DebugCtx(c.Request.Context(), "request", fields...)
		}
	}
}

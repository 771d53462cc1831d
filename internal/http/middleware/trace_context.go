package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/titlememory-backend/internal/platform/ctxutil"
)

const (
	headerTraceID       = "X-Trace-Id"
	headerRequestID     = "X-Request-Id"
	headerTitleMemoryID = "X-Title-Memory-Id"
)

// AttachTraceContext stores request correlation ids on the request context
// and echoes them as response headers. Routes under /:id also record the
// addressed title memory on the active span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		span := trace.SpanFromContext(c.Request.Context())
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" && span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		td := &ctxutil.TraceData{
			TraceID:       traceID,
			RequestID:     reqID,
			TitleMemoryID: strings.TrimSpace(c.Param("id")),
		}
		if td.TitleMemoryID != "" {
			span.SetAttributes(attribute.String("title_memory_id", td.TitleMemoryID))
			c.Writer.Header().Set(headerTitleMemoryID, td.TitleMemoryID)
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/courseguide-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientIDLen = 128
)

// AttachTraceContext stamps every request with a request id and trace id,
// stores them in the request context and echoes them as response headers.
//
// Client-supplied ids are kept only when they are short and made of safe
// characters, since they end up in logs. An active span's trace id wins over
// the client header so logs join up with exported traces.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		reqID, ok := clientID(c.GetHeader(headerRequestID))
		if !ok {
			reqID = uuid.NewString()
		}

		var traceID string
		if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
			span.SetAttributes(attribute.String("http.request_id", reqID))
		} else if id, ok := clientID(c.GetHeader(headerTraceID)); ok {
			traceID = id
		} else {
			traceID = reqID
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func clientID(raw string) (string, bool) {
	if raw == "" || len(raw) > maxClientIDLen {
		return "", false
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ':':
		default:
			return "", false
		}
	}
	return raw, true
}

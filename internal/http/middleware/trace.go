package middleware

import (
	"net/http"
	"time"

	"github.com/davidbz/prism/internal/observability"
)

const (
	// TraceIDHeader carries the trace ID of the request.
	TraceIDHeader = "X-Trace-Id"

	// RequestIDHeader carries the request ID. A client-supplied value is reused.
	RequestIDHeader = "X-Request-Id"
)

// Trace creates a middleware that injects trace, span and request IDs into
// every request and logs its outcome.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			traceID := observability.GenerateTraceID()
			ctx = observability.WithTraceID(ctx, traceID)
			ctx = observability.WithSpanID(ctx, observability.GenerateSpanID())

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = observability.GenerateRequestID()
			}
			ctx = observability.WithRequestID(ctx, requestID)

			w.Header().Set(TraceIDHeader, traceID)
			w.Header().Set(RequestIDHeader, requestID)

			logger := observability.FromContext(ctx)
			logger.Info("request started",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("remote_addr", r.RemoteAddr),
			)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			logger.Info("request completed",
				observability.Int("status", rec.status),
				observability.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusRecorder remembers the response status and keeps SSE flushing working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

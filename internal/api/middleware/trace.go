package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/inkwell-api/internal/api/shared"
	"github.com/phrazzld/inkwell-api/internal/platform/logger"
)

// TraceMiddleware assigns every request a trace ID, exposes it in the
// X-Trace-ID response header, and stores a logger carrying the ID in the
// request context so all request-scoped logs can be correlated.
// It should be applied early in the middleware chain.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		w.Header().Set("X-Trace-ID", traceID)

		reqLog := slog.With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, reqLog)

		reqLog.Debug("incoming request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"
	"unicode"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kivlab.dev/portfolio-web/internal/logging"
)

// Logger stores a request-scoped zap logger on the context and emits one
// structured entry per request.
func Logger(base *zap.Logger) func(http.Handler) http.Handler {
	base = logging.OrNop(base)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := base.With(
				zap.String("request_id", chiMid.GetReqID(r.Context())),
				zap.String("method", sanitize(r.Method, 10)),
				zap.String("path", sanitize(r.URL.Path, 180)),
			)
			if id := TraceID(r); id != "" {
				logger = logger.With(zap.String("trace_id", id))
			}
			rw := NewResponseRecorder(w)
			next.ServeHTTP(rw, r.WithContext(logging.WithLogger(r.Context(), logger)))

			status := rw.Status()
			level := zapcore.InfoLevel
			if status >= http.StatusInternalServerError {
				level = zapcore.ErrorLevel
			}
			logger.Check(level, "request").Write(
				zap.Int("status", status),
				zap.Int("bytes", rw.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", clientIP(r)),
				zap.Bool("htmx", IsHTMX(r.Context())),
			)
		})
	}
}

// sanitize drops control characters and caps length to keep log lines intact.
func sanitize(value string, limit int) string {
	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return string(cleaned)
}

func clientIP(r *http.Request) string {
	// chi's RealIP has already promoted X-Forwarded-For / X-Real-IP.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

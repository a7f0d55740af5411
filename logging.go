package stremio

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// NewLogger creates a new logger with the specified level and encoding.
// The level can be "debug", "info", "warn", or "error".
// The encoding can be "json" or "console".
func NewLogger(level string, encoding string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if encoding == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	return slog.New(handler)
}

// createLoggingMiddleware creates a middleware that logs each handled request
// with its status and duration.
func createLoggingMiddleware(logger *slog.Logger, logIPs, logUserAgent bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response writer that captures the status code
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			attrs := []any{
				"status", rw.statusCode,
				"duration", time.Since(start).Round(time.Microsecond),
				"method", r.Method,
				"url", r.URL.String(),
			}
			if logIPs {
				attrs = append(attrs,
					"ip", r.RemoteAddr,
					"forwardedFor", r.Header.Values("X-Forwarded-For"),
				)
			}
			if logUserAgent {
				attrs = append(attrs, "userAgent", r.UserAgent())
			}

			logger.Info("Handled request", attrs...)
		})
	}
}

// responseWriter is a wrapper around http.ResponseWriter that captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// createHealthHandler creates a handler for health check requests.
func createHealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check request received")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

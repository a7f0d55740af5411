package stremio

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/cors"
)

// corsMiddleware configures CORS the way Stremio requires it: without the
// Access-Control-Allow-Origin header Stremio silently drops the responses.
func corsMiddleware() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		AllowedHeaders: []string{
			"Accept",
			"Accept-Language",
			"Content-Type",
			"Origin",
			"Accept-Encoding",
			"Content-Language",
			"X-Requested-With",
		},
	})
	return c.Handler
}

func createMetricsMiddleware() func(http.Handler) http.Handler {
	manifestRegex := regexp.MustCompile(`^/.*/manifest\.json$`)
	catalogRegex := regexp.MustCompile(`^/.*/catalog/.*/.*\.json`)
	metaRegex := regexp.MustCompile(`^/.*/meta/.*/.*\.json`)
	streamRegex := regexp.MustCompile(`^/.*/stream/.*/.*\.json`)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Create response writer that captures the status code
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			var endpoint string
			switch path {
			case "/":
				endpoint = "root"
			case "/manifest.json":
				endpoint = "manifest"
			case "/configure.json":
				endpoint = "configure"
			case "/health":
				endpoint = "health"
			case "/metrics":
				endpoint = "metrics"
			}

			if endpoint == "" {
				if strings.HasPrefix(path, "/catalog") {
					endpoint = "catalog"
				} else if strings.HasPrefix(path, "/meta") {
					endpoint = "meta"
				} else if strings.HasPrefix(path, "/stream") {
					endpoint = "stream"
				}
			}

			if endpoint == "" {
				if manifestRegex.MatchString(path) {
					endpoint = "manifest-data"
				} else if catalogRegex.MatchString(path) {
					endpoint = "catalog-data"
				} else if metaRegex.MatchString(path) {
					endpoint = "meta-data"
				} else if streamRegex.MatchString(path) {
					endpoint = "stream-data"
				}
			}

			// It would be valid for Prometheus to have an empty string as label, but it's confusing for users and makes custom legends in Grafana ugly.
			if endpoint == "" {
				endpoint = "other"
			}

			// Total number of HTTP requests.
			counterName := fmt.Sprintf(`http_requests_total{endpoint=%q, status="%v"}`, endpoint, rw.statusCode)
			metrics.GetOrCreateCounter(counterName).Add(1)
		})
	}
}

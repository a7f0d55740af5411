package stremio

import (
	"log/slog"
	"time"
)

// Options contains all options for creating a new addon.
type Options struct {
	// Server options
	BindAddr string
	Port     int

	// Logging options
	Logger                *slog.Logger
	LoggingLevel          string // "debug", "info", "warn", "error"
	LogEncoding           string // "json", "console"
	DisableRequestLogging bool
	LogIPs                bool
	LogUserAgent          bool

	// Caching options
	CacheAgeCatalogs time.Duration
	CacheAgeMetas    time.Duration
	CacheAgeStreams  time.Duration
	// If true, the Cache-Control headers are marked "public" so CDNs and
	// proxies may cache the responses, not just the client.
	CachePublicCatalogs bool
	CachePublicMetas    bool
	CachePublicStreams  bool
	// If true, the addon calculates ETags for responses and answers
	// If-None-Match requests with "304 Not Modified" where possible.
	HandleEtagCatalogs bool
	HandleEtagMetas    bool
	HandleEtagStreams  bool

	// Other options
	Metrics     bool
	RedirectURL string
	// If true, the addon will expect user data to be base64 encoded.
	UserDataIsBase64 bool
	// If set, stream requests with IDs not matching this regex are rejected
	// with a "400 Bad Request" before the handler runs.
	StreamIDregex string
}

// DefaultOptions contains the default values for Options.
var DefaultOptions = Options{
	BindAddr:     "0.0.0.0",
	Port:         8080,
	LoggingLevel: "info",
	LogEncoding:  "console",
}

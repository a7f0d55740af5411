package stremio

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// ManifestCallback is the callback for manifest requests, so mostly addon installations.
// You can use the callback for two things:
//  1. To *prevent* users from installing your addon in Stremio.
//     The userData parameter depends on whether you called `RegisterUserData()` before:
//     If not, a simple string will be passed. It's empty if the user didn't provide user data.
//     If yes, a pointer to an object you registered will be passed. It's nil if the user didn't provide user data.
//     Return an HTTP status code >= 400 to stop further processing and let the addon return that exact status code.
//     Any status code < 400 will lead to the manifest being returned with a 200 OK status code in the response.
//  2. To *alter* the manifest before it's returned.
//     This can be useful for example if you want to return some catalogs depending on the userData.
//     Note that the manifest is only returned if the first return value is < 400 (see point 1.).
type ManifestCallback func(ctx context.Context, manifest *Manifest, userData any) int

// CatalogHandler is the callback for catalog requests for a specific type (like "series").
// The id parameter is the catalog ID that you specified yourself in the CatalogItem objects in the Manifest.
// The extra parameter carries the optional extra properties of the request:
// "search" (a string to search for in the catalog), "genre" (a string to
// filter the catalog by) and "skip" (for pagination).
// The userData parameter depends on whether you called `RegisterUserData()` before:
// If not, a simple string will be passed. It's empty if the user didn't provide user data.
// If yes, a pointer to an object you registered will be passed. It's nil if the user didn't provide user data.
type CatalogHandler func(ctx context.Context, id string, extra url.Values, userData any) ([]MetaPreviewItem, error)

// MetaHandler is the callback for metadata requests for a specific type (like "series").
// The id parameter is the ID of the requested item, with your ID prefix.
type MetaHandler func(ctx context.Context, id string, userData any) (MetaItem, error)

// StreamHandler is the callback for stream requests for a specific type (like "series").
// The id parameter is the video ID the host wants to play.
type StreamHandler func(ctx context.Context, id string, userData any) ([]StreamItem, error)

// ConfigurationUI describes the addon's configuration form for hosts that
// render one, served at "/configure.json".
type ConfigurationUI struct {
	Type       string         `json:"type"` // The type of configuration UI (e.g. "form")
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
	Default    any            `json:"default,omitempty"`
}

// Addon represents a remote addon.
// You can create one with NewAddon() and then run it with Run().
type Addon struct {
	manifest         Manifest
	catalogHandlers  map[string]CatalogHandler
	metaHandlers     map[string]MetaHandler
	streamHandlers   map[string]StreamHandler
	configUI         *ConfigurationUI
	opts             Options
	logger           *slog.Logger
	customEndpoints  []customEndpoint
	manifestCallback ManifestCallback
	userDataType     reflect.Type
	streamIDregex    *regexp.Regexp
}

// NewAddon creates a new Addon object that can be started with Run().
// A proper manifest must be supplied, but manifestCallback and all but one
// handler map can be nil in case you only want to handle specific requests,
// and opts can be the zero value of Options.
func NewAddon(manifest Manifest, catalogHandlers map[string]CatalogHandler, metaHandlers map[string]MetaHandler, streamHandlers map[string]StreamHandler, opts Options) (*Addon, error) {
	// Precondition checks
	if manifest.ID == "" || manifest.Name == "" || manifest.Description == "" || manifest.Version == "" {
		return nil, errors.New("An empty manifest was passed")
	} else if catalogHandlers == nil && metaHandlers == nil && streamHandlers == nil {
		return nil, errors.New("No handler was passed")
	} else if (opts.CachePublicCatalogs && opts.CacheAgeCatalogs == 0) ||
		(opts.CachePublicMetas && opts.CacheAgeMetas == 0) ||
		(opts.CachePublicStreams && opts.CacheAgeStreams == 0) {
		return nil, errors.New("Enabling public caching only makes sense when also setting a cache age")
	} else if (opts.HandleEtagCatalogs && opts.CacheAgeCatalogs == 0) ||
		(opts.HandleEtagMetas && opts.CacheAgeMetas == 0) ||
		(opts.HandleEtagStreams && opts.CacheAgeStreams == 0) {
		return nil, errors.New("ETag handling only makes sense when also setting a cache age")
	} else if opts.DisableRequestLogging && (opts.LogIPs || opts.LogUserAgent) {
		return nil, errors.New("Enabling IP or user agent logging doesn't make sense when disabling request logging")
	} else if opts.Logger != nil && opts.LoggingLevel != "" {
		return nil, errors.New("Setting a logging level in the options doesn't make sense when you already set a custom logger")
	} else if manifest.BehaviorHints.ConfigurationRequired && !manifest.BehaviorHints.Configurable {
		return nil, errors.New("Requiring a configuration only makes sense when also making the addon configurable")
	}

	// Set default values
	if opts.BindAddr == "" {
		opts.BindAddr = DefaultOptions.BindAddr
	}
	if opts.Port == 0 {
		opts.Port = DefaultOptions.Port
	}
	if opts.LoggingLevel == "" {
		opts.LoggingLevel = DefaultOptions.LoggingLevel
	}
	if opts.LogEncoding == "" {
		opts.LogEncoding = DefaultOptions.LogEncoding
	}

	// Configure logger if no custom one is set
	if opts.Logger == nil {
		opts.Logger = NewLogger(opts.LoggingLevel, opts.LogEncoding)
	}

	var streamIDregex *regexp.Regexp
	if opts.StreamIDregex != "" {
		var err error
		streamIDregex, err = regexp.Compile(opts.StreamIDregex)
		if err != nil {
			return nil, errors.New("Invalid stream ID regex: " + err.Error())
		}
	}

	return &Addon{
		manifest:        manifest,
		catalogHandlers: catalogHandlers,
		metaHandlers:    metaHandlers,
		streamHandlers:  streamHandlers,
		opts:            opts,
		logger:          opts.Logger,
		streamIDregex:   streamIDregex,
	}, nil
}

// RegisterUserData registers the type of userData, so the addon can automatically unmarshal user data into an object of this type
// and pass the object into the manifest callback or catalog, meta and stream handlers.
func (a *Addon) RegisterUserData(userDataObject any) {
	t := reflect.TypeOf(userDataObject)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	a.userDataType = t
}

// DecodeUserData decodes the request's user data and returns the result.
// It's useful when you add custom endpoints to the addon that don't have a
// userData parameter like the handlers have.
func (a *Addon) DecodeUserData(param string, r *http.Request) (any, error) {
	data := r.PathValue(param)
	if data == "" {
		data = r.URL.Query().Get(param)
	}
	return decodeUserData(data, a.userDataType, a.logger, a.opts.UserDataIsBase64)
}

// AddEndpoint adds a custom endpoint (a route and its handler).
func (a *Addon) AddEndpoint(method, path string, handler http.HandlerFunc) {
	a.customEndpoints = append(a.customEndpoints, customEndpoint{
		method:  method,
		path:    path,
		handler: handler,
	})
}

// SetManifestCallback sets the manifest callback.
func (a *Addon) SetManifestCallback(callback ManifestCallback) {
	a.manifestCallback = callback
}

// SetConfigurationUI sets the configuration UI served at "/configure.json".
func (a *Addon) SetConfigurationUI(ui *ConfigurationUI) {
	a.configUI = ui
}

// routes builds the addon's full HTTP handler: all endpoints plus the
// middleware chain. It's separate from Run so tests can drive the addon
// through httptest without binding a real port.
//
// The user data path segment can't be expressed as a "/{userData}/catalog/..."
// ServeMux pattern: such a pattern and the literal-rooted
// "/catalog/{type}/{id}/{extras}" both match a request like
// "/catalog/catalog/a/b" and neither is more specific, so registering both
// panics. The resource routes therefore live on their own mux, and a "/"
// fallback strips the leading segment and re-dispatches, carrying the user
// data in the query string where the handlers already look for it.
func (a *Addon) routes() http.Handler {
	logger := a.logger

	manifestHandler := createManifestHandler(a.manifest, logger, a.manifestCallback, a.userDataType, a.opts.UserDataIsBase64)

	var catalogHandler, metaHandler, streamHandler http.HandlerFunc
	if a.catalogHandlers != nil {
		catalogHandler = createCatalogHandler(a.catalogHandlers, int(a.opts.CacheAgeCatalogs.Seconds()), a.opts.CachePublicCatalogs, a.opts.HandleEtagCatalogs, logger, a.userDataType, a.opts.UserDataIsBase64)
	}
	if a.metaHandlers != nil {
		metaHandler = createMetaHandler(a.metaHandlers, int(a.opts.CacheAgeMetas.Seconds()), a.opts.CachePublicMetas, a.opts.HandleEtagMetas, logger, a.userDataType, a.opts.UserDataIsBase64)
	}
	if a.streamHandlers != nil {
		streamHandler = createStreamHandler(a.streamHandlers, int(a.opts.CacheAgeStreams.Seconds()), a.opts.CachePublicStreams, a.opts.HandleEtagStreams, a.streamIDregex, logger, a.userDataType, a.opts.UserDataIsBase64)
	}

	// Routes reachable behind a user data segment.
	resources := http.NewServeMux()
	resources.HandleFunc("/manifest.json", manifestHandler)
	if catalogHandler != nil {
		resources.HandleFunc("/catalog/{type}/{id}", catalogHandler)
		resources.HandleFunc("/catalog/{type}/{id}/{extras}", catalogHandler)
	}
	if metaHandler != nil {
		resources.HandleFunc("/meta/{type}/{id}", metaHandler)
	}
	if streamHandler != nil {
		resources.HandleFunc("/stream/{type}/{id}", streamHandler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", createHealthHandler(logger))

	// The route without user data is always registered, because even if
	// BehaviorHints.ConfigurationRequired is true this endpoint is required
	// for the addon to be listed in Stremio's community addons.
	mux.HandleFunc("/manifest.json", manifestHandler)

	if !a.manifest.BehaviorHints.ConfigurationRequired {
		if catalogHandler != nil {
			mux.HandleFunc("/catalog/{type}/{id}", catalogHandler)
			mux.HandleFunc("/catalog/{type}/{id}/{extras}", catalogHandler)
		}
		if metaHandler != nil {
			mux.HandleFunc("/meta/{type}/{id}", metaHandler)
		}
		if streamHandler != nil {
			mux.HandleFunc("/stream/{type}/{id}", streamHandler)
		}
	}

	if a.manifest.BehaviorHints.Configurable && a.configUI != nil {
		mux.HandleFunc("/configure.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(a.configUI)
		})
	}

	if a.opts.Metrics {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
	}

	if a.opts.RedirectURL != "" {
		mux.HandleFunc("/{$}", createRootHandler(a.opts.RedirectURL, logger))
	}

	for _, endpoint := range a.customEndpoints {
		mux.HandleFunc(endpoint.method+" "+endpoint.path, endpoint.handler)
	}

	// Everything unmatched is treated as "/{userData}/<resource route>":
	// the first segment moves into the query string and the rest is
	// dispatched on the resource mux.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		userData, rest, found := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
		if !found || userData == "" {
			http.NotFound(w, r)
			return
		}
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/" + rest
		r2.URL.RawPath = ""
		query := r2.URL.Query()
		query.Set("userData", userData)
		r2.URL.RawQuery = query.Encode()
		resources.ServeHTTP(w, r2)
	})

	// Middleware chain: CORS outermost, then metrics, then request logging.
	var handler http.Handler = mux
	if !a.opts.DisableRequestLogging {
		handler = createLoggingMiddleware(logger, a.opts.LogIPs, a.opts.LogUserAgent)(handler)
	}
	if a.opts.Metrics {
		handler = createMetricsMiddleware()(handler)
	}
	handler = corsMiddleware()(handler)
	return handler
}

// Run starts the remote addon. It sets up an HTTP server that handles requests to "/manifest.json" etc. and gracefully handles shutdowns.
// The call is *blocking*, so use the stoppingChan param if you want to be notified when the addon is about to shut down
// because of a system signal like Ctrl+C or `docker stop`. It should be a buffered channel with a capacity of 1.
func (a *Addon) Run(stoppingChan chan bool) {
	logger := a.logger

	// Make sure the passed channel is buffered, so we can send a message before shutting down and not be blocked by the channel.
	if stoppingChan != nil && cap(stoppingChan) < 1 {
		logger.Error("The passed stopping channel isn't buffered")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    a.opts.BindAddr + ":" + strconv.Itoa(a.opts.Port),
		Handler: a.routes(),
	}

	logger.Info("Starting server", "address", server.Addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Couldn't start server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT (Ctrl+C) and SIGTERM (`docker stop`)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	logger.Info("Received signal, shutting down server...", "signal", sig.String())

	if stoppingChan != nil {
		stoppingChan <- true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down server", "error", err)
		os.Exit(1)
	}

	logger.Info("Finished shutting down server")
}

package stremio

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type customEndpoint struct {
	method  string
	path    string
	handler http.HandlerFunc
}

// generateETag generates an ETag for the given data.
func generateETag(data any) string {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return `"` + strconv.FormatUint(xxhash.Sum64(jsonData), 16) + `"`
}

// setCacheHeaders sets Cache-Control and, when enabled, the ETag header.
// It returns true when the request carried a matching If-None-Match header
// and the caller should respond with "304 Not Modified".
func setCacheHeaders(w http.ResponseWriter, r *http.Request, data any, cacheAge int, cachePublic, handleEtag bool) bool {
	if cacheAge > 0 {
		cacheControl := "max-age=" + strconv.Itoa(cacheAge)
		if cachePublic {
			cacheControl = "public, " + cacheControl
		} else {
			cacheControl = "private, " + cacheControl
		}
		w.Header().Set("Cache-Control", cacheControl)
	}
	if handleEtag {
		etag := generateETag(data)
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			return true
		}
	}
	return false
}

// pathID returns the {id} path segment with the trailing ".json" stripped.
func pathID(r *http.Request) string {
	return strings.TrimSuffix(r.PathValue("id"), ".json")
}

// parseExtras parses the optional {extras} path segment of catalog requests
// ("search=foo" or "genre=Drama&skip=100") into url.Values.
func parseExtras(r *http.Request) url.Values {
	extras := strings.TrimSuffix(r.PathValue("extras"), ".json")
	if extras == "" {
		return url.Values{}
	}
	unescaped, err := url.PathUnescape(extras)
	if err != nil {
		unescaped = extras
	}
	values, err := url.ParseQuery(unescaped)
	if err != nil {
		return url.Values{}
	}
	return values
}

// requestUserData returns the raw user data from the URL, either from the
// {userData} path segment or from the query string.
func requestUserData(r *http.Request) string {
	userData := r.PathValue("userData")
	if userData == "" {
		userData = r.URL.Query().Get("userData")
	}
	return userData
}

// createManifestHandler creates a handler for manifest requests.
func createManifestHandler(manifest Manifest, logger *slog.Logger, callback ManifestCallback, userDataType reflect.Type, userDataIsBase64 bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decodedUserData, err := decodeUserData(requestUserData(r), userDataType, logger, userDataIsBase64)
		if err != nil {
			http.Error(w, "Invalid user data", http.StatusBadRequest)
			return
		}

		// The callback can veto the installation or alter the manifest,
		// for example to mark configuration as no longer required.
		if callback != nil {
			if status := callback(r.Context(), &manifest, decodedUserData); status >= 400 {
				http.Error(w, "Manifest callback returned error", status)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(manifest)
	}
}

// createCatalogHandler creates a handler for catalog requests.
func createCatalogHandler(handlers map[string]CatalogHandler, cacheAge int, cachePublic bool, handleEtag bool, logger *slog.Logger, userDataType reflect.Type, userDataIsBase64 bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typeStr := r.PathValue("type")
		id := pathID(r)
		if typeStr == "" || id == "" {
			http.Error(w, "Missing type or id parameter", http.StatusBadRequest)
			return
		}

		decodedUserData, err := decodeUserData(requestUserData(r), userDataType, logger, userDataIsBase64)
		if err != nil {
			http.Error(w, "Invalid user data", http.StatusBadRequest)
			return
		}

		handler, ok := handlers[typeStr]
		if !ok {
			http.Error(w, "Unsupported type", http.StatusBadRequest)
			return
		}

		items, err := handler(r.Context(), id, parseExtras(r), decodedUserData)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "Not found", http.StatusNotFound)
			case errors.Is(err, ErrBadRequest):
				http.Error(w, "Bad request", http.StatusBadRequest)
			default:
				logger.Error("Catalog handler returned error", "error", err)
				http.Error(w, "Failed to get catalog", http.StatusInternalServerError)
			}
			return
		}

		if notModified := setCacheHeaders(w, r, items, cacheAge, cachePublic, handleEtag); notModified {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"metas": items})
	}
}

// createMetaHandler creates a handler for meta requests.
func createMetaHandler(handlers map[string]MetaHandler, cacheAge int, cachePublic bool, handleEtag bool, logger *slog.Logger, userDataType reflect.Type, userDataIsBase64 bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typeStr := r.PathValue("type")
		id := pathID(r)
		if typeStr == "" || id == "" {
			http.Error(w, "Missing type or id parameter", http.StatusBadRequest)
			return
		}

		decodedUserData, err := decodeUserData(requestUserData(r), userDataType, logger, userDataIsBase64)
		if err != nil {
			http.Error(w, "Invalid user data", http.StatusBadRequest)
			return
		}

		handler, ok := handlers[typeStr]
		if !ok {
			http.Error(w, "Unsupported type", http.StatusBadRequest)
			return
		}

		meta, err := handler(r.Context(), id, decodedUserData)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "Not found", http.StatusNotFound)
			case errors.Is(err, ErrBadRequest):
				http.Error(w, "Bad request", http.StatusBadRequest)
			default:
				logger.Error("Meta handler returned error", "error", err)
				http.Error(w, "Failed to get meta", http.StatusInternalServerError)
			}
			return
		}

		if notModified := setCacheHeaders(w, r, meta, cacheAge, cachePublic, handleEtag); notModified {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"meta": meta})
	}
}

// createStreamHandler creates a handler for stream requests.
func createStreamHandler(handlers map[string]StreamHandler, cacheAge int, cachePublic bool, handleEtag bool, streamIDregex *regexp.Regexp, logger *slog.Logger, userDataType reflect.Type, userDataIsBase64 bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typeStr := r.PathValue("type")
		id := pathID(r)
		if typeStr == "" || id == "" {
			http.Error(w, "Missing type or id parameter", http.StatusBadRequest)
			return
		}
		if streamIDregex != nil && !streamIDregex.MatchString(id) {
			http.Error(w, "Invalid stream ID", http.StatusBadRequest)
			return
		}

		decodedUserData, err := decodeUserData(requestUserData(r), userDataType, logger, userDataIsBase64)
		if err != nil {
			http.Error(w, "Invalid user data", http.StatusBadRequest)
			return
		}

		handler, ok := handlers[typeStr]
		if !ok {
			http.Error(w, "Unsupported type", http.StatusBadRequest)
			return
		}

		items, err := handler(r.Context(), id, decodedUserData)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "Not found", http.StatusNotFound)
			case errors.Is(err, ErrBadRequest):
				http.Error(w, "Bad request", http.StatusBadRequest)
			default:
				logger.Error("Stream handler returned error", "error", err)
				http.Error(w, "Failed to get streams", http.StatusInternalServerError)
			}
			return
		}

		if notModified := setCacheHeaders(w, r, items, cacheAge, cachePublic, handleEtag); notModified {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"streams": items})
	}
}

func createRootHandler(redirectURL string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Responding with redirect", "redirectURL", redirectURL)
		http.Redirect(w, r, redirectURL, http.StatusMovedPermanently)
	}
}

func decodeUserData(data string, t reflect.Type, logger *slog.Logger, userDataIsBase64 bool) (any, error) {
	if data == "" {
		// No user data provided, return empty string (as per SDK docs)
		return "", nil
	}

	if t == nil {
		// No user data type registered, pass the raw string through
		return data, nil
	}

	var userDataDecoded []byte
	var err error
	if userDataIsBase64 {
		// Remove padding so that both Base64URL values with and without padding work.
		data = strings.TrimSuffix(data, "=")
		userDataDecoded, err = base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	} else {
		var userDataDecodedString string
		userDataDecodedString, err = url.PathUnescape(data)
		userDataDecoded = []byte(userDataDecodedString)
	}
	if err != nil {
		// We use WARN instead of ERROR because it's most likely an *encoding* error on the client side
		logger.Warn("Couldn't decode user data", "error", err)
		return nil, err
	}

	userData := reflect.New(t).Interface()
	if err := json.Unmarshal(userDataDecoded, userData); err != nil {
		logger.Warn("Couldn't unmarshal user data", "error", err)
		return nil, err
	}
	return userData, nil
}

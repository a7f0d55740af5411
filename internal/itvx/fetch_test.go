package itvx

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetDocumentHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Firefox")
		assert.Equal(t, "text/html", r.Header.Get("Accept"))
		assert.Equal(t, "br, gzip", r.Header.Get("Accept-Encoding"))
		io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	doc, err := f.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", doc)
}

func TestGetJSONParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "itv", r.URL.Query().Get("broadcaster"))
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	var resp struct {
		OK bool `json:"ok"`
	}
	params := map[string][]string{"broadcaster": {"itv"}}
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, params, &resp))
	assert.True(t, resp.OK)
}

func TestBrotliResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		io.WriteString(bw, `{"compressed":"br"}`)
		bw.Close()
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	var resp map[string]string
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, nil, &resp))
	assert.Equal(t, "br", resp["compressed"])
}

func TestGzipResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gw := gzip.NewWriter(w)
		io.WriteString(gw, `{"compressed":"gzip"}`)
		gw.Close()
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	var resp map[string]string
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, nil, &resp))
	assert.Equal(t, "gzip", resp["compressed"])
}

func TestRetryOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	doc, err := f.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	doc, err := f.GetDocument(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", doc)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), discardLogger())
	_, err := f.GetDocument(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5", maxRetryWait))
	assert.Equal(t, time.Second, parseRetryAfter("", maxRetryWait))
	assert.Equal(t, time.Second, parseRetryAfter("-3", maxRetryWait))
	assert.Equal(t, maxRetryWait, parseRetryAfter("3600", maxRetryWait))
	assert.Equal(t, time.Second, parseRetryAfter("not a number", maxRetryWait))

	// HTTP-date in the past means no extra wait beyond the minimum.
	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	assert.Equal(t, time.Second, parseRetryAfter(past, maxRetryWait))
}

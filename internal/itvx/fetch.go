package itvx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetryWait   = 60 * time.Second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/118.0"
)

// Fetcher retrieves HTML documents and JSON responses from the broadcaster.
// It sends browser-like headers, transparently decodes brotli and gzip
// bodies and retries once on 429 and 5xx responses. A shared rate limiter
// keeps request bursts to the upstream polite.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFetcher returns a Fetcher with a tuned shared client.
// Pass nil to use http.DefaultClient's transport with a 30s timeout.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		// Navigation is user-driven and bursty: allow short bursts but keep
		// the sustained rate low.
		limiter: rate.NewLimiter(rate.Limit(4), 8),
		logger:  logger,
	}
}

// GetDocument fetches rawURL and returns the response body as a string.
func (f *Fetcher) GetDocument(ctx context.Context, rawURL string) (string, error) {
	body, err := f.get(ctx, rawURL, "text/html")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON fetches rawURL with the given query parameters and decodes the
// JSON response into v.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	body, err := f.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("itvx: decode %s: %w", rawURL, err)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := f.doWithRetry(ctx, rawURL, accept)
	if err != nil {
		return nil, fmt.Errorf("itvx: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itvx: get %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("itvx: get %s: %w", rawURL, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("itvx: get %s: read body: %w", rawURL, err)
	}
	return body, nil
}

// doWithRetry performs the request and retries once on 429 (honouring
// Retry-After) and on 5xx. 4xx other than 429 are never retried.
func (f *Fetcher) doWithRetry(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	resp, err := f.do(ctx, rawURL, accept)
	if err != nil {
		return nil, err
	}
	code := resp.StatusCode
	if code != http.StatusTooManyRequests && code < 500 {
		return resp, nil
	}

	wait := time.Second
	if code == http.StatusTooManyRequests {
		wait = parseRetryAfter(resp.Header.Get("Retry-After"), maxRetryWait)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	f.logger.Warn("Retrying upstream request", "url", rawURL, "status", code, "wait", wait)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(wait):
	}
	return f.do(ctx, rawURL, accept)
}

func (f *Fetcher) do(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	// Setting Accept-Encoding manually disables Go's transparent gzip
	// handling, so decodeBody must cover both encodings.
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("Origin", "https://www.itv.com")
	return f.client.Do(req)
}

// decodeBody returns a reader that decodes the response body according to
// its Content-Encoding header.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}

// parseRetryAfter parses a Retry-After header (seconds or HTTP-date) and
// returns the wait duration capped at max.
func parseRetryAfter(s string, max time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(s); err == nil {
		wait := time.Duration(secs) * time.Second
		if wait > max {
			return max
		}
		if wait <= 0 {
			return time.Second
		}
		return wait
	}
	if t, err := http.ParseTime(s); err == nil {
		wait := time.Until(t)
		if wait > max {
			return max
		}
		if wait <= 0 {
			return time.Second
		}
		return wait
	}
	return time.Second
}

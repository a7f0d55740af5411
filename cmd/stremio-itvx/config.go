package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// config holds the addon's runtime settings, loaded from the environment.
type config struct {
	BindAddr    string
	Port        int
	LogLevel    string
	LogEncoding string
	LogIPs      bool
	Metrics     bool

	BaseURL     string // override the upstream site, used in tests
	CacheTTL    time.Duration
	CacheMaxAge time.Duration // Cache-Control max-age served on catalogs and metas
}

// loadConfig reads settings from ITVX_ADDON_* environment variables.
// Call loadEnvFile(".env") first to use a .env file.
func loadConfig() *config {
	return &config{
		BindAddr:    getEnv("ITVX_ADDON_BIND_ADDR", "0.0.0.0"),
		Port:        getEnvInt("ITVX_ADDON_PORT", 8080),
		LogLevel:    getEnv("ITVX_ADDON_LOG_LEVEL", "info"),
		LogEncoding: getEnv("ITVX_ADDON_LOG_ENCODING", "console"),
		LogIPs:      getEnvBool("ITVX_ADDON_LOG_IPS", false),
		Metrics:     getEnvBool("ITVX_ADDON_METRICS", false),
		BaseURL:     os.Getenv("ITVX_ADDON_BASE_URL"),
		CacheTTL:    getEnvDuration("ITVX_ADDON_CACHE_TTL", 10*time.Minute),
		CacheMaxAge: getEnvDuration("ITVX_ADDON_CACHE_MAX_AGE", 10*time.Minute),
	}
}

// loadEnvFile reads path and sets environment variables for each "KEY=value"
// line. Missing files are fine; empty lines and # comments are skipped.
func loadEnvFile(path string) error {
	path = filepath.Clean(path)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key != "" {
			os.Setenv(key, value)
		}
	}
	return sc.Err()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/ukstream/stremio-itvx"
	"github.com/ukstream/stremio-itvx/internal/itvx"
)

const manifestID = "com.github.ukstream.stremio-itvx"

// fallbackCategories is used for the genre options when the category page
// cannot be reached at startup. The live list replaces it when available.
var fallbackCategories = []string{
	"Drama & Soaps", "Entertainment", "Films", "Factual",
	"Comedy", "News", "Sport", "Children", "Signed BSL",
}

func main() {
	if err := loadEnvFile(".env"); err != nil {
		slog.Error("Reading .env file failed", "error", err)
		os.Exit(1)
	}
	cfg := loadConfig()
	logger := stremio.NewLogger(cfg.LogLevel, cfg.LogEncoding)

	client := itvx.NewClient(itvx.Config{
		Logger:   logger,
		CacheTTL: cfg.CacheTTL,
		BaseURL:  cfg.BaseURL,
	})

	manifest := buildManifest(client, logger)

	catalogHandlers := map[string]stremio.CatalogHandler{
		"series": dispatchCatalogs(map[string]stremio.CatalogHandler{
			"itvx-featured": createFeaturedCatalogHandler(client),
			"itvx-vod":      createVODCatalogHandler(client),
		}),
		"tv": createLiveCatalogHandler(client),
	}
	metaHandlers := map[string]stremio.MetaHandler{
		"series": createSeriesMetaHandler(client),
		"tv":     createLiveMetaHandler(client),
	}
	streamHandlers := map[string]stremio.StreamHandler{
		"series": createSeriesStreamHandler(client, logger),
		"tv":     createLiveStreamHandler(),
	}

	opts := stremio.Options{
		BindAddr:         cfg.BindAddr,
		Port:             cfg.Port,
		Logger:           logger,
		LogIPs:           cfg.LogIPs,
		Metrics:          cfg.Metrics,
		CacheAgeCatalogs: cfg.CacheMaxAge,
		CacheAgeMetas:    cfg.CacheMaxAge,
		CacheAgeStreams:  time.Minute,
	}
	if cfg.CacheMaxAge > 0 {
		opts.HandleEtagCatalogs = true
		opts.HandleEtagMetas = true
	}

	addon, err := stremio.NewAddon(manifest, catalogHandlers, metaHandlers, streamHandlers, opts)
	if err != nil {
		logger.Error("Creating addon failed", "error", err)
		os.Exit(1)
	}

	addon.RegisterUserData(userSettings{})
	addon.SetConfigurationUI(configurationUI())

	addon.Run(nil)
}

// dispatchCatalogs routes one type's catalog requests to per-catalog
// handlers by catalog id.
func dispatchCatalogs(handlers map[string]stremio.CatalogHandler) stremio.CatalogHandler {
	return func(ctx context.Context, id string, extra url.Values, userData any) ([]stremio.MetaPreviewItem, error) {
		handler, ok := handlers[id]
		if !ok {
			return nil, fmt.Errorf("catalog %q: %w", id, stremio.ErrNotFound)
		}
		return handler(ctx, id, extra, userData)
	}
}

// buildManifest assembles the manifest, filling the genre options from the
// live category and collection lists when they can be fetched.
func buildManifest(client *itvx.Client, logger *slog.Logger) stremio.Manifest {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	categories := fallbackCategories
	if cats, err := client.Categories(ctx); err == nil && len(cats) > 0 {
		categories = make([]string, 0, len(cats))
		for _, cat := range cats {
			categories = append(categories, cat.Label)
		}
	} else if err != nil {
		logger.Warn("Fetching categories for the manifest failed, using fallback list", "error", err)
	}

	var collections []string
	if colls, err := client.Collections(ctx); err == nil {
		for _, coll := range colls {
			collections = append(collections, coll.Label)
		}
	} else {
		logger.Warn("Fetching collections for the manifest failed", "error", err)
	}

	return stremio.Manifest{
		ID:          manifestID,
		Name:        "ITVX",
		Description: "Watch ITVX programmes, films, live channels and collections",
		Version:     "0.1.0",
		ResourceItems: []stremio.ResourceItem{
			{Name: "catalog", Types: []string{"series", "tv"}},
			{Name: "meta", Types: []string{"series", "tv"}, IDprefixes: []string{"itvx:", "itvxlive:"}},
			{Name: "stream", Types: []string{"series", "tv"}, IDprefixes: []string{"itvx:", "itvxlive:"}},
		},
		Types: []string{"series", "tv"},
		Catalogs: []stremio.CatalogItem{
			{
				Type: "series",
				ID:   "itvx-featured",
				Name: "ITVX Featured",
				Extra: []stremio.ExtraItem{
					{Name: "genre", Options: collections},
				},
			},
			{
				Type: "series",
				ID:   "itvx-vod",
				Name: "ITVX",
				Extra: []stremio.ExtraItem{
					{Name: "genre", IsRequired: true, Options: categories},
					{Name: "search"},
				},
			},
			{
				Type: "tv",
				ID:   "itvx-live",
				Name: "ITVX Live",
			},
		},
		IDprefixes: []string{"itvx:", "itvxlive:"},
		BehaviorHints: stremio.BehaviorHints{
			Configurable: true,
		},
	}
}

// configurationUI describes the install-time settings page.
func configurationUI() *stremio.ConfigurationUI {
	return stremio.NewConfigurationUI("form", map[string]any{
		"hidePaid": stremio.NewConfigurationField("checkbox", "Hide premium content").
			SetDescription("Leave out programmes that need a paid subscription").
			SetDefault(false),
	})
}

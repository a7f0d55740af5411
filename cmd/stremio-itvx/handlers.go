package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ukstream/stremio-itvx"
	"github.com/ukstream/stremio-itvx/internal/itvx"
)

// userSettings is the addon's install-time configuration, carried in the
// userData path segment of every request.
type userSettings struct {
	HidePaid bool `json:"hidePaid"`
}

func hidePaid(userData any) bool {
	settings, ok := userData.(*userSettings)
	return ok && settings.HidePaid
}

// createFeaturedCatalogHandler serves the promoted shows of the main page.
// A genre selects one of the curated collections instead.
func createFeaturedCatalogHandler(client *itvx.Client) stremio.CatalogHandler {
	return func(ctx context.Context, id string, extra url.Values, userData any) ([]stremio.MetaPreviewItem, error) {
		if genre := extra.Get("genre"); genre != "" {
			items, err := collectionByLabel(ctx, client, genre)
			if err != nil {
				return nil, err
			}
			return toMetaPreviews(items, "series"), nil
		}
		items, err := client.MainPageItems(ctx)
		if err != nil {
			return nil, err
		}
		return toMetaPreviews(items, "series"), nil
	}
}

func collectionByLabel(ctx context.Context, client *itvx.Client, label string) ([]itvx.Item, error) {
	collections, err := client.Collections(ctx)
	if err != nil {
		return nil, err
	}
	for _, coll := range collections {
		if strings.EqualFold(coll.Label, label) {
			return client.CollectionContent(ctx, coll.Params.Slider, coll.Params.URL)
		}
	}
	return nil, fmt.Errorf("collection %q: %w", label, stremio.ErrNotFound)
}

// createVODCatalogHandler serves the on-demand catalogue. A search extra
// queries the text search service, a genre extra lists one category.
func createVODCatalogHandler(client *itvx.Client) stremio.CatalogHandler {
	return func(ctx context.Context, id string, extra url.Values, userData any) ([]stremio.MetaPreviewItem, error) {
		if term := extra.Get("search"); term != "" {
			items, err := client.Search(ctx, term)
			if err != nil {
				return nil, err
			}
			return toMetaPreviews(items, "series"), nil
		}

		genre := extra.Get("genre")
		if genre == "" {
			return nil, fmt.Errorf("catalog %s needs a genre or search extra: %w", id, stremio.ErrBadRequest)
		}
		categories, err := client.Categories(ctx)
		if err != nil {
			return nil, err
		}
		for _, cat := range categories {
			if strings.EqualFold(cat.Label, genre) {
				items, err := client.CategoryContent(ctx, cat.Params.Path, hidePaid(userData))
				if err != nil {
					return nil, err
				}
				return toMetaPreviews(items, "series"), nil
			}
		}
		return nil, fmt.Errorf("category %q: %w", genre, stremio.ErrNotFound)
	}
}

// createLiveCatalogHandler serves the live channel list.
func createLiveCatalogHandler(client *itvx.Client) stremio.CatalogHandler {
	return func(ctx context.Context, id string, extra url.Values, userData any) ([]stremio.MetaPreviewItem, error) {
		channels, err := client.LiveChannels(ctx)
		if err != nil {
			return nil, err
		}
		previews := make([]stremio.MetaPreviewItem, 0, len(channels))
		for _, ch := range channels {
			previews = append(previews, stremio.MetaPreviewItem{
				ID:          liveIDPrefix + ch.ID,
				Type:        "tv",
				Name:        ch.Name,
				Poster:      ch.Logo,
				PosterShape: "square",
				Background:  ch.Backdrop,
				Logo:        ch.Logo,
				Description: formatSchedule(ch.Slots),
			})
		}
		return previews, nil
	}
}

// formatSchedule renders upcoming slots as one line per programme.
func formatSchedule(slots []itvx.Slot) string {
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, slot.StartTime+"  "+slot.Details)
	}
	return strings.Join(lines, "\n")
}

// toMetaPreviews converts listing entries to catalog previews. Navigable
// programmes get a programme id, playable entries a playable id.
// Collection entries are dropped: their target is a collection page, not a
// programme page, and they are browsed through the catalog's genre options.
func toMetaPreviews(items []itvx.Item, metaType string) []stremio.MetaPreviewItem {
	previews := make([]stremio.MetaPreviewItem, 0, len(items))
	for _, item := range items {
		if item.EntityType == "collection" {
			continue
		}
		preview := stremio.MetaPreviewItem{
			ID:          itemID(item),
			Type:        metaType,
			Name:        item.Label,
			Poster:      item.Art.Thumb,
			PosterShape: "landscape",
			Background:  item.Art.Fanart,
			Description: item.Info.Plot,
		}
		if item.Art.Poster != "" {
			preview.Poster = item.Art.Poster
			preview.PosterShape = "poster"
		}
		previews = append(previews, preview)
	}
	return previews
}

func itemID(item itvx.Item) string {
	if item.Playable {
		return encodeID(playableIDPrefix, item.Params.URL)
	}
	if item.Params.Path != "" {
		return encodeID(programmeIDPrefix, item.Params.Path)
	}
	return encodeID(programmeIDPrefix, item.Params.URL)
}

// createSeriesMetaHandler resolves programme and playable ids into meta
// objects. Programmes list all their series' episodes as videos.
func createSeriesMetaHandler(client *itvx.Client) stremio.MetaHandler {
	return func(ctx context.Context, id string, userData any) (stremio.MetaItem, error) {
		if strings.HasPrefix(id, playableIDPrefix) {
			target, err := decodeID(id, playableIDPrefix)
			if err != nil {
				return stremio.MetaItem{}, fmt.Errorf("%w: %v", stremio.ErrBadRequest, err)
			}
			name := titleFromWatchPath(target)
			return stremio.MetaItem{
				ID:   id,
				Type: "series",
				Name: name,
				Videos: []stremio.VideoItem{
					{ID: id, Title: name},
				},
				BehaviorHints: stremio.MetaBehaviorHints{DefaultVideoID: id},
			}, nil
		}

		target, err := decodeID(id, programmeIDPrefix)
		if err != nil {
			return stremio.MetaItem{}, fmt.Errorf("%w: %v", stremio.ErrBadRequest, err)
		}
		listings, err := client.Episodes(ctx, target)
		if err != nil {
			return stremio.MetaItem{}, err
		}

		meta := stremio.MetaItem{
			ID:   id,
			Type: "series",
			Name: titleFromWatchPath(target),
		}
		for _, series := range listings {
			if meta.Poster == "" {
				meta.Poster = series.Art.Thumb
				meta.Background = series.Art.Fanart
				meta.PosterShape = "landscape"
			}
			for i, ep := range series.Episodes {
				episode := ep.Info.Episode
				if episode == 0 {
					episode = i + 1
				}
				meta.Videos = append(meta.Videos, stremio.VideoItem{
					ID:        encodeID(playableIDPrefix, ep.Params.URL),
					Title:     ep.Label,
					Released:  ep.Info.Date,
					Thumbnail: ep.Art.Thumb,
					Available: true,
					Episode:   episode,
					Season:    series.SeriesNumber,
					Overview:  ep.Info.Plot,
				})
			}
		}
		return meta, nil
	}
}

// createLiveMetaHandler resolves a live channel id into a meta object with
// the channel's upcoming schedule as description.
func createLiveMetaHandler(client *itvx.Client) stremio.MetaHandler {
	return func(ctx context.Context, id string, userData any) (stremio.MetaItem, error) {
		channelID, ok := strings.CutPrefix(id, liveIDPrefix)
		if !ok {
			return stremio.MetaItem{}, fmt.Errorf("id %q: %w", id, stremio.ErrBadRequest)
		}
		channels, err := client.LiveChannels(ctx)
		if err != nil {
			return stremio.MetaItem{}, err
		}
		for _, ch := range channels {
			if ch.ID != channelID {
				continue
			}
			return stremio.MetaItem{
				ID:          id,
				Type:        "tv",
				Name:        ch.Name,
				Poster:      ch.Logo,
				PosterShape: "square",
				Background:  ch.Backdrop,
				Logo:        ch.Logo,
				Description: formatSchedule(ch.Slots),
				BehaviorHints: stremio.MetaBehaviorHints{
					DefaultVideoID: id,
				},
			}, nil
		}
		return stremio.MetaItem{}, fmt.Errorf("channel %q: %w", channelID, stremio.ErrNotFound)
	}
}

// createSeriesStreamHandler resolves a playable id into streams. Watch page
// paths are scraped for their playlist URL, ready playlist URLs pass
// through as they are.
func createSeriesStreamHandler(client *itvx.Client, logger *slog.Logger) stremio.StreamHandler {
	return func(ctx context.Context, id string, userData any) ([]stremio.StreamItem, error) {
		target, err := decodeID(id, playableIDPrefix)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", stremio.ErrBadRequest, err)
		}

		if strings.HasPrefix(target, "https://") && !strings.Contains(target, "://www.itv.com/") {
			return []stremio.StreamItem{{
				URL:           target,
				Name:          "ITVX",
				BehaviorHints: stremio.StreamBehaviorHints{NotWebReady: true},
			}}, nil
		}

		playlistURL, err := client.PlaylistURL(ctx, target)
		if err != nil {
			logger.Error("Resolving playlist failed", "id", id, "error", err)
			return nil, err
		}
		pageURL := target
		if strings.HasPrefix(pageURL, "/") {
			pageURL = "https://www.itv.com" + pageURL
		}
		return []stremio.StreamItem{
			{
				URL:           playlistURL,
				Name:          "ITVX",
				Title:         "Playlist",
				BehaviorHints: stremio.StreamBehaviorHints{NotWebReady: true},
			},
			{
				ExternalURL: pageURL,
				Name:        "ITVX",
				Title:       "Open watch page",
			},
		}, nil
	}
}

// createLiveStreamHandler points a live channel id at the channel's watch
// page. Live playback needs DRM the addon cannot broker itself.
func createLiveStreamHandler() stremio.StreamHandler {
	return func(ctx context.Context, id string, userData any) ([]stremio.StreamItem, error) {
		channelID, ok := strings.CutPrefix(id, liveIDPrefix)
		if !ok {
			return nil, fmt.Errorf("id %q: %w", id, stremio.ErrBadRequest)
		}
		return []stremio.StreamItem{{
			ExternalURL: "https://www.itv.com/watch/" + url.PathEscape(channelID),
			Name:        "ITVX Live",
			Title:       "Watch live",
		}}, nil
	}
}

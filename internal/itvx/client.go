package itvx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://www.itv.com"
	defaultNowNextURL  = "https://nownext.oasvc.itv.com/channels"
	defaultScheduleURL = "https://scheduled.oasvc.itv.com/scheduled/itvonline/schedules"
	defaultSearchURL   = "https://textsearch.prd.oasvc.itv.com/search"

	// Feature sets the upstream endpoints expects a capable client to announce.
	liveFeatureSet   = "hd,progressive,single-track,mpeg-dash,widevine,widevine-download,inband-ttml,hls,aes,inband-webvtt,outband-webvtt,inband-audio-description"
	searchFeatureSet = "clearkey,outband-webvtt,hls,aes,playready,widevine,fairplay,bbts,progressive,hd,rtmpe"
	livePlatformTag  = "mobile"
)

// Config carries the knobs of a Client. The zero value is usable; empty
// fields fall back to production defaults.
type Config struct {
	Fetcher     *Fetcher
	Logger      *slog.Logger
	CacheTTL    time.Duration
	BaseURL     string
	NowNextURL  string
	ScheduleURL string
	SearchURL   string
	Now         func() time.Time
}

func (c *Config) applyDefaults() {
	if c.Fetcher == nil {
		c.Fetcher = NewFetcher(nil, c.Logger)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.NowNextURL == "" {
		c.NowNextURL = defaultNowNextURL
	}
	if c.ScheduleURL == "" {
		c.ScheduleURL = defaultScheduleURL
	}
	if c.SearchURL == "" {
		c.SearchURL = defaultSearchURL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Client exposes the broadcaster's VOD catalogue as listing operations.
// Scraped pages are cached in memory, so repeated navigation within a
// session does not hammer the upstream.
type Client struct {
	fetcher     *Fetcher
	logger      *slog.Logger
	cache       *pageCache
	baseURL     string
	nowNextURL  string
	scheduleURL string
	searchURL   string
	now         func() time.Time
}

func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		fetcher:     cfg.Fetcher,
		logger:      cfg.Logger,
		cache:       newPageCache(cfg.CacheTTL),
		baseURL:     cfg.BaseURL,
		nowNextURL:  cfg.NowNextURL,
		scheduleURL: cfg.ScheduleURL,
		searchURL:   cfg.SearchURL,
		now:         cfg.Now,
	}
}

// absURL resolves a site-relative path against the base URL. Absolute URLs
// pass through unchanged.
func (c *Client) absURL(u string) string {
	if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
		return u
	}
	return c.baseURL + u
}

// GetPageData fetches a watch page and returns the data object embedded in
// its HTML. Results are cached per URL.
func (c *Client) GetPageData(ctx context.Context, pageURL string) (json.RawMessage, error) {
	pageURL = c.absURL(pageURL)
	if data, ok := c.cache.get(pageURL); ok {
		return data, nil
	}
	doc, err := c.fetcher.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	data, err := ScrapeJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("itvx: %s: %w", pageURL, err)
	}
	c.cache.put(pageURL, data)
	return data, nil
}

// MainPageItems returns the hero items promoted on the main page.
func (c *Client) MainPageItems(ctx context.Context) ([]Item, error) {
	page, err := c.mainPage(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(page.HeroContent))
	for _, hero := range page.HeroContent {
		item, ok := c.parseHeroContent(hero)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Collections returns the curated collections shown on the main page.
// Sliders embedded in the page itself are addressed by slider key, the
// rest by their collection page URL.
func (c *Client) Collections(ctx context.Context) ([]Item, error) {
	page, err := c.mainPage(ctx)
	if err != nil {
		return nil, err
	}

	var items []Item
	if len(page.Trending.Items) > 0 {
		items = append(items, Item{
			Label:      page.Trending.Header.Title,
			EntityType: "collection",
			Params:     Params{Slider: "trendingSliderContent"},
		})
	}
	if len(page.NewsShortform.Items) > 0 {
		items = append(items, Item{
			Label:      page.NewsShortform.Header.Title,
			EntityType: "collection",
			Params:     Params{Slider: "newsShortformSliderContent"},
		})
	}

	keys := make([]string, 0, len(page.EditorialSliders))
	for key := range page.EditorialSliders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		slider := page.EditorialSliders[key]
		label := slider.Header.Title
		if label == "" {
			label = key
		}
		items = append(items, Item{
			Label:      label,
			EntityType: "collection",
			Params:     Params{Slider: key},
		})
	}
	return items, nil
}

// CollectionContent returns the programmes of one collection. Pass either
// a slider key from Collections or a collection page URL.
func (c *Client) CollectionContent(ctx context.Context, slider, pageURL string) ([]Item, error) {
	var shows []heroRaw
	switch {
	case slider != "":
		page, err := c.mainPage(ctx)
		if err != nil {
			return nil, err
		}
		switch slider {
		case "trendingSliderContent":
			shows = page.Trending.Items
		case "newsShortformSliderContent":
			shows = page.NewsShortform.Items
		default:
			sl, ok := page.EditorialSliders[slider]
			if !ok {
				return nil, fmt.Errorf("itvx: unknown collection %q", slider)
			}
			shows = sl.Items
		}
	case pageURL != "":
		data, err := c.GetPageData(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		var page collectionPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("itvx: decode collection page: %w", err)
		}
		shows = page.Collection.Shows
	default:
		return nil, fmt.Errorf("itvx: collection needs a slider key or page url")
	}

	items := make([]Item, 0, len(shows))
	for _, show := range shows {
		item, ok := c.parseHeroContent(show)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) mainPage(ctx context.Context) (*mainPage, error) {
	data, err := c.GetPageData(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	var page mainPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("itvx: decode main page: %w", err)
	}
	return &page, nil
}

// parseHeroContent turns one promoted show into a listing entry. Items of
// an unsupported content type are skipped.
func (c *Client) parseHeroContent(hero heroRaw) (Item, bool) {
	art := Art{
		Thumb:  ExpandImage(hero.ImageTemplate, ProfileThumb),
		Fanart: ExpandImage(hero.ImageTemplate, ProfileFanart),
	}

	switch hero.ContentType {
	case "collection":
		return Item{
			Label:      hero.Title,
			EntityType: "collection",
			Art:        art,
			Info:       Info{Title: hero.Title, Plot: hero.Description},
			Params:     Params{URL: "/watch/collections/" + hero.CollectionID},
		}, true

	case "film", "special", "episode":
		return Item{
			Label:      hero.Title,
			EntityType: "special",
			Playable:   true,
			Art:        art,
			Info: Info{
				Title:    hero.Title,
				Plot:     hero.Description,
				Duration: durationToSeconds(hero.ContentInfo),
			},
			Params: Params{
				URL: buildWatchPath(hero.Title, hero.EncodedProgrammeID.LetterA,
					hero.EncodedEpisodeID.LetterA),
				Name: hero.Title,
			},
		}, true

	case "series", "brand", "programme":
		return Item{
			Label:      hero.Title,
			EntityType: "programme",
			Art:        art,
			Info:       Info{Title: hero.Title, Plot: hero.Description},
			Params:     Params{URL: buildWatchPath(hero.Title, hero.EncodedProgrammeID.LetterA)},
		}, true

	default:
		c.logger.Info("Skipping promoted item of unsupported type",
			"contentType", hero.ContentType, "title", hero.Title)
		return Item{}, false
	}
}

// Categories returns the category names of the catalogue.
func (c *Client) Categories(ctx context.Context) ([]Item, error) {
	data, err := c.GetPageData(ctx, "/watch/categories")
	if err != nil {
		return nil, err
	}
	var page categoriesPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("itvx: decode categories: %w", err)
	}
	items := make([]Item, 0, len(page.Subnav.Items))
	for _, cat := range page.Subnav.Items {
		items = append(items, Item{
			Label:      cat.Name,
			EntityType: "category",
			Params:     Params{Path: cat.URL},
		})
	}
	return items, nil
}

// CategoryContent returns all programmes of one category. Paid programmes
// are marked in their plot, or dropped entirely when hidePaid is set.
func (c *Client) CategoryContent(ctx context.Context, path string, hidePaid bool) ([]Item, error) {
	data, err := c.GetPageData(ctx, path)
	if err != nil {
		return nil, err
	}
	var page categoryPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("itvx: decode category page: %w", err)
	}

	isFilms := page.Category.PathSegment == "films"
	items := make([]Item, 0, len(page.Programmes))
	for _, prog := range page.Programmes {
		playable := !strings.HasPrefix(strings.ToLower(prog.ContentInfo), "series")

		plot := prog.Description
		if !slices.Contains(prog.Tier, "FREE") {
			if hidePaid {
				continue
			}
			plot = prog.Description + "\n\npremium"
		}

		title := prog.Title
		if !playable {
			title = prog.Title + " " + prog.ContentInfo
		}

		item := Item{
			Label:      prog.Title,
			EntityType: "programme",
			Playable:   playable,
			Art: Art{
				Thumb:  ExpandImage(prog.ImageTemplate, ProfileThumb),
				Fanart: ExpandImage(prog.ImageTemplate, ProfileFanart),
			},
			Info: Info{
				Title:     title,
				Plot:      plot,
				SortTitle: sortTitle(prog.Title),
			},
		}
		if isFilms {
			item.Art.Poster = ExpandImage(prog.ImageTemplate, ProfilePoster)
		}
		if playable {
			item.Info.Duration = durationToSeconds(prog.ContentInfo)
			item.Params.URL = buildWatchPath(prog.Title, prog.EncodedProgrammeID.LetterA,
				prog.EncodedEpisodeID.LetterA)
		} else {
			item.Params.URL = buildWatchPath(prog.Title, prog.EncodedProgrammeID.LetterA)
		}
		items = append(items, item)
	}
	return items, nil
}

// Episodes returns a programme's series with their episodes, read from the
// programme's watch page.
func (c *Client) Episodes(ctx context.Context, pageURL string) ([]SeriesListing, error) {
	data, err := c.GetPageData(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	var page brandPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("itvx: decode programme page: %w", err)
	}

	brand := page.Title.Brand
	brandThumb := ExpandImage(brand.ImageTemplate, ProfileThumb)
	brandFanart := ExpandImage(brand.ImageTemplate, ProfileFanart)

	listings := make([]SeriesListing, 0, len(brand.Series))
	for _, series := range brand.Series {
		listing := SeriesListing{
			Label:        series.Title,
			SeriesNumber: series.SeriesNumber,
			EpisodeCount: series.SeriesAvailableEpisodeCount,
			Art:          Art{Thumb: brandThumb, Fanart: brandFanart},
			Info: Info{
				Title: brand.Title + " - " + series.Title,
				Plot: fmt.Sprintf("%s\n\n%s - %d episodes",
					brand.Synopses.Ninety, series.Title, series.SeriesAvailableEpisodeCount),
			},
		}
		listing.Episodes = make([]Item, 0, len(series.Episodes))
		for _, ep := range series.Episodes {
			listing.Episodes = append(listing.Episodes, parseEpisode(brand.Title, ep, brandFanart))
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// parseEpisode turns one raw episode into a playable listing entry.
func parseEpisode(brandTitle string, ep episodeRaw, fanart string) Item {
	label := ep.EpisodeTitle
	if label == "" {
		label = ep.BroadcastDateTime
	}
	duration := durationToSeconds(ep.NotFormattedDuration)
	if duration == 0 {
		duration = durationToSeconds(ep.ContentInfo)
	}
	return Item{
		Label:      label,
		EntityType: "episode",
		Playable:   true,
		Art: Art{
			Thumb:  ExpandImage(ep.ImageTemplate, ProfileThumb),
			Fanart: fanart,
		},
		Info: Info{
			Title:    label,
			Plot:     ep.Description,
			Date:     ep.BroadcastDateTime,
			Episode:  ep.Episode,
			Duration: duration,
		},
		Params: Params{
			URL: buildWatchPath(brandTitle, ep.EncodedProgrammeID.LetterA,
				ep.EncodedEpisodeID.LetterA),
			Name: label,
		},
	}
}

// LiveChannels returns the live channels with their upcoming slots. The
// main channels get their slots from the full schedule so they carry the
// original start times play-from-start needs; FAST channels only know
// what's on now and next.
func (c *Client) LiveChannels(ctx context.Context) ([]Channel, error) {
	params := url.Values{}
	params.Set("broadcaster", "itv")
	params.Set("featureSet", liveFeatureSet)
	params.Set("platformTag", livePlatformTag)

	var resp nowNextResponse
	if err := c.fetcher.GetJSON(ctx, c.nowNextURL, params, &resp); err != nil {
		return nil, err
	}

	schedule, err := c.liveSchedule(ctx)
	if err != nil {
		// The now/next feed alone still makes a usable channel list.
		c.logger.Warn("Live schedule unavailable, using now/next only", "error", err)
		schedule = nil
	}

	channels := make([]Channel, 0, len(resp.Channels))
	for _, raw := range resp.Channels {
		channel := Channel{
			ID:          raw.ID,
			Name:        raw.Name,
			ChannelType: raw.ChannelType,
			Backdrop:    resp.Images.Backdrop,
			Logo:        raw.Images.Logo,
		}

		if raw.ChannelType == "simulcast" {
			if slots, ok := schedule[raw.ID]; ok && len(slots) > 0 {
				channel.Slots = slots
				channels = append(channels, channel)
				continue
			}
		}

		for _, prog := range []slotProgrammeRaw{raw.Slots.Now, raw.Slots.Next} {
			details := prog.DisplayTitle
			if prog.DetailedDisplayTitle != "" {
				details = prog.DisplayTitle + ": " + prog.DetailedDisplayTitle
			}
			channel.Slots = append(channel.Slots, Slot{
				ProgrammeTitle: prog.DisplayTitle,
				Details:        details,
				StartTime:      localClock(prog.Start),
				// FAST channels do not support play from start.
				OrigStart: "",
			})
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// Search queries the text search service and returns programme and single
// production results. Results of other types are logged and skipped.
func (c *Client) Search(ctx context.Context, term string) ([]Item, error) {
	params := url.Values{}
	params.Set("broadcaster", "itv")
	params.Set("featureSet", searchFeatureSet)
	// Only free items: paid productions cannot be listed this way.
	params.Set("onlyFree", "true")
	params.Set("platform", "dotcom")
	params.Set("query", term)

	var resp searchResponse
	if err := c.fetcher.GetJSON(ctx, c.searchURL, params, &resp); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(resp.Results))
	for _, result := range resp.Results {
		switch result.EntityType {
		case "programme":
			var prog searchProgrammeRaw
			if err := json.Unmarshal(result.Data, &prog); err != nil {
				c.logger.Warn("Undecodable search result", "entityType", result.EntityType, "error", err)
				continue
			}
			items = append(items, parseSearchProgramme(prog))
		case "special":
			var special searchSpecialRaw
			if err := json.Unmarshal(result.Data, &special); err != nil {
				c.logger.Warn("Undecodable search result", "entityType", result.EntityType, "error", err)
				continue
			}
			items = append(items, parseSearchSpecial(special))
		default:
			c.logger.Warn("Unknown search result entity type",
				"entityType", result.EntityType, "term", term)
		}
	}
	return items, nil
}

func parseSearchProgramme(prog searchProgrammeRaw) Item {
	productionsURL := fmt.Sprintf(
		"https://discovery.hubsvc.itv.com/platform/itvonline/dotcom/productions?programmeId=%s"+
			"&features=aes,clearkey,fairplay,hls,mpeg-dash,outband-webvtt,playready,widevine&broadcaster=itv",
		prog.LegacyID.APIEncoded)
	// The api-encoded legacy id maps onto the letter-A id used in watch
	// page paths by swapping the separator.
	letterA := strings.ReplaceAll(prog.LegacyID.APIEncoded, "_", "a")
	return Item{
		Label:      prog.ProgrammeTitle,
		EntityType: "programme",
		Art:        Art{Thumb: ExpandImage(prog.LatestAvailableEpisode.ImageHref, ProfileThumb)},
		Info: Info{
			Title: fmt.Sprintf("%s - %d episodes", prog.ProgrammeTitle, prog.TotalAvailableEpisodes),
			Plot:  prog.Synopsis,
		},
		Params: Params{
			URL:  productionsURL,
			Path: buildWatchPath(prog.ProgrammeTitle, letterA),
			Name: prog.ProgrammeTitle,
		},
	}
}

func parseSearchSpecial(special searchSpecialRaw) Item {
	// Production ids use characters the playlist URL path cannot carry.
	apiProdID := strings.NewReplacer("/", "_", "#", ".").Replace(special.ProductionID)
	return Item{
		Label:      special.SpecialTitle,
		EntityType: "special",
		Playable:   true,
		Art:        Art{Thumb: ExpandImage(special.ImageHref, ProfileThumb)},
		Info:       Info{Title: special.SpecialTitle, Plot: special.Synopsis},
		Params: Params{
			URL:  "https://magni.itv.com/playlist/itvonline/ITV/" + apiProdID,
			Name: special.SpecialTitle,
		},
	}
}

// PlaylistURL scrapes the playlist URL out of an episode's watch page.
func (c *Client) PlaylistURL(ctx context.Context, pageURL string) (string, error) {
	pageURL = c.absURL(pageURL)
	doc, err := c.fetcher.GetDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	playlistURL, err := scrapeVideoID(doc)
	if err != nil {
		return "", fmt.Errorf("itvx: %s: %w", pageURL, err)
	}
	return playlistURL, nil
}

package itvx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureServer serves the testdata fixtures under the paths the client
// requests them from. Watch pages are wrapped into HTML with the data
// embedded the way the site renders it.
func fixtureServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32

	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			data, err := os.ReadFile("testdata/" + name)
			require.NoError(t, err)
			fmt.Fprintf(w, `<html><head><script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":%s}}</script></head><body></body></html>`, data)
		}
	}
	file := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			data, err := os.ReadFile("testdata/" + name)
			require.NoError(t, err)
			w.Write(data)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", page("main_page.json"))
	mux.HandleFunc("/watch/categories", page("categories.json"))
	mux.HandleFunc("/watch/categories/films", page("category_films.json"))
	mux.HandleFunc("/watch/miss-marple/7a0001", page("brand.json"))
	mux.HandleFunc("/watch/collections/coll1", page("collection.json"))
	mux.HandleFunc("/watch/the-chase/1a7842/1a7842a0001", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><div data-video-id="https://magni.example/playlist/itvonline/ITV/1_7842_0001.001"></div></body></html>`)
	})
	mux.HandleFunc("/channels", file("now_next.json"))
	mux.HandleFunc("/schedules", file("schedule.json"))
	mux.HandleFunc("/search", file("search.json"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestClient(t *testing.T) (*Client, *atomic.Int32) {
	t.Helper()
	srv, requests := fixtureServer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(Config{
		Fetcher:     NewFetcher(srv.Client(), logger),
		Logger:      logger,
		BaseURL:     srv.URL,
		NowNextURL:  srv.URL + "/channels",
		ScheduleURL: srv.URL + "/schedules",
		SearchURL:   srv.URL + "/search",
	})
	return client, requests
}

func TestMainPageItems(t *testing.T) {
	client, _ := newTestClient(t)

	items, err := client.MainPageItems(context.Background())
	require.NoError(t, err)
	// The unsupported "page" item is skipped.
	require.Len(t, items, 2)

	chase := items[0]
	assert.Equal(t, "The Chase", chase.Label)
	assert.Equal(t, "programme", chase.EntityType)
	assert.False(t, chase.Playable)
	assert.Equal(t, "/watch/the-chase/1a7842", chase.Params.URL)
	assert.Equal(t, "https://img.example/chase.jpg?w=960&h=540&q=80", chase.Art.Thumb)
	assert.Equal(t, "https://img.example/chase.jpg?w=1920&h=1080&q=80", chase.Art.Fanart)

	spy := items[1]
	assert.True(t, spy.Playable)
	assert.Equal(t, "special", spy.EntityType)
	assert.Equal(t, "/watch/a-spy-among-friends/10a2468/10a2468a0001", spy.Params.URL)
	assert.Equal(t, 92*60, spy.Info.Duration)
}

func TestCollections(t *testing.T) {
	client, _ := newTestClient(t)

	collections, err := client.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 3)
	assert.Equal(t, "Trending", collections[0].Label)
	assert.Equal(t, "trendingSliderContent", collections[0].Params.Slider)
	assert.Equal(t, "Latest news", collections[1].Label)
	assert.Equal(t, "Fresh In", collections[2].Label)
	assert.Equal(t, "editorialRailSlot1", collections[2].Params.Slider)
}

func TestCollectionContent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	t.Run("slider", func(t *testing.T) {
		items, err := client.CollectionContent(ctx, "trendingSliderContent", "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Heat", items[0].Label)
		assert.True(t, items[0].Playable)
		assert.Equal(t, (2*60+50)*60, items[0].Info.Duration)
	})

	t.Run("page", func(t *testing.T) {
		items, err := client.CollectionContent(ctx, "", "/watch/collections/coll1")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Plebs", items[0].Label)
		assert.False(t, items[0].Playable)
		assert.Equal(t, "An Audience with Adele", items[1].Label)
		assert.True(t, items[1].Playable)
	})

	t.Run("unknown slider", func(t *testing.T) {
		_, err := client.CollectionContent(ctx, "noSuchSlider", "")
		assert.Error(t, err)
	})

	t.Run("no selector", func(t *testing.T) {
		_, err := client.CollectionContent(ctx, "", "")
		assert.Error(t, err)
	})
}

func TestCategories(t *testing.T) {
	client, _ := newTestClient(t)

	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Drama & Soaps", categories[0].Label)
	assert.Equal(t, "/watch/categories/drama-soaps", categories[0].Params.Path)
}

func TestCategoryContent(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	items, err := client.CategoryContent(ctx, "/watch/categories/films", false)
	require.NoError(t, err)
	require.Len(t, items, 3)

	free := items[0]
	assert.Equal(t, "The Guns of Navarone", free.Label)
	assert.True(t, free.Playable)
	assert.Equal(t, 150*60, free.Info.Duration)
	assert.Equal(t, "War epic", free.Info.Plot)
	assert.Equal(t, "guns of navarone", free.Info.SortTitle)
	// Films get poster artwork on top of thumb and fanart.
	assert.Equal(t, "https://img.example/guns.jpg?w=720&h=1080", free.Art.Poster)
	assert.Equal(t, "/watch/the-guns-of-navarone/4a0001/4a0001a0001", free.Params.URL)

	paid := items[1]
	assert.Contains(t, paid.Info.Plot, "premium")

	series := items[2]
	assert.False(t, series.Playable)
	assert.Equal(t, "The Long Running Drama Series 3", series.Info.Title)
	assert.Equal(t, "/watch/the-long-running-drama/6a0001", series.Params.URL)
}

func TestCategoryContentHidePaid(t *testing.T) {
	client, _ := newTestClient(t)

	items, err := client.CategoryContent(context.Background(), "/watch/categories/films", true)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, "Premium Film", item.Label)
	}
}

func TestEpisodes(t *testing.T) {
	client, _ := newTestClient(t)

	listings, err := client.Episodes(context.Background(), "/watch/miss-marple/7a0001")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	s1 := listings[0]
	assert.Equal(t, "Series 1", s1.Label)
	assert.Equal(t, 1, s1.SeriesNumber)
	assert.Equal(t, 2, s1.EpisodeCount)
	assert.Equal(t, "Miss Marple - Series 1", s1.Info.Title)
	assert.Contains(t, s1.Info.Plot, "Classic whodunits")
	assert.Contains(t, s1.Info.Plot, "2 episodes")
	assert.Equal(t, "https://img.example/marple.jpg?w=960&h=540", s1.Art.Thumb)
	require.Len(t, s1.Episodes, 2)

	ep1 := s1.Episodes[0]
	assert.Equal(t, "The Body in the Library", ep1.Label)
	assert.True(t, ep1.Playable)
	assert.Equal(t, 100*60, ep1.Info.Duration)
	assert.Equal(t, 1, ep1.Info.Episode)
	assert.Equal(t, "/watch/miss-marple/7a0001/7a0001a0001", ep1.Params.URL)

	// An episode without a title falls back to its broadcast date, and an
	// empty duration falls back to contentInfo.
	ep2 := s1.Episodes[1]
	assert.Equal(t, "1984-12-27T21:00:00Z", ep2.Label)
	assert.Equal(t, 95*60, ep2.Info.Duration)

	assert.Equal(t, 2, listings[1].SeriesNumber)
}

func TestLiveChannels(t *testing.T) {
	client, _ := newTestClient(t)

	channels, err := client.LiveChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)

	itv := channels[0]
	assert.Equal(t, "ITV", itv.ID)
	assert.Equal(t, "ITV1", itv.Name)
	assert.Equal(t, "simulcast", itv.ChannelType)
	assert.Equal(t, "https://img.example/backdrop.jpg", itv.Backdrop)
	assert.Equal(t, "https://img.example/itv1.png", itv.Logo)
	// The main channel takes its slots from the full schedule, which knows
	// the original start times.
	require.Len(t, itv.Slots, 3)
	assert.Equal(t, "Good Morning Britain", itv.Slots[0].ProgrammeTitle)
	assert.Equal(t, "2024-05-01T06:00:00", itv.Slots[0].OrigStart)
	assert.NotEmpty(t, itv.Slots[0].StartTime)

	fast := channels[1]
	assert.Equal(t, "fast", fast.ChannelType)
	require.Len(t, fast.Slots, 2)
	assert.Equal(t, "Unwind: Calm scenes", fast.Slots[0].Details)
	assert.Equal(t, "Unwind", fast.Slots[1].Details)
	assert.Empty(t, fast.Slots[0].OrigStart)
}

func TestLiveChannelsWithoutSchedule(t *testing.T) {
	srv, _ := fixtureServer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(Config{
		Fetcher:     NewFetcher(srv.Client(), logger),
		Logger:      logger,
		BaseURL:     srv.URL,
		NowNextURL:  srv.URL + "/channels",
		ScheduleURL: srv.URL + "/no-such-schedule",
		SearchURL:   srv.URL + "/search",
	})

	channels, err := client.LiveChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	// Without the full schedule the main channel falls back to now/next.
	assert.Len(t, channels[0].Slots, 2)
}

func TestSearch(t *testing.T) {
	client, _ := newTestClient(t)

	items, err := client.Search(context.Background(), "the chase")
	require.NoError(t, err)
	// The unknown "songs" result is dropped.
	require.Len(t, items, 2)

	prog := items[0]
	assert.Equal(t, "The Chase", prog.Label)
	assert.Equal(t, "programme", prog.EntityType)
	assert.False(t, prog.Playable)
	assert.Equal(t, "The Chase - 52 episodes", prog.Info.Title)
	assert.Contains(t, prog.Params.URL, "programmeId=1_7842")
	assert.Equal(t, "/watch/the-chase/1a7842", prog.Params.Path)
	assert.Equal(t, "https://img.example/chase/960x540.jpg", prog.Art.Thumb)

	special := items[1]
	assert.Equal(t, "special", special.EntityType)
	assert.True(t, special.Playable)
	assert.Equal(t, "https://magni.itv.com/playlist/itvonline/ITV/1_9953_0001.001", special.Params.URL)
}

func TestPlaylistURL(t *testing.T) {
	client, _ := newTestClient(t)

	playlistURL, err := client.PlaylistURL(context.Background(), "/watch/the-chase/1a7842/1a7842a0001")
	require.NoError(t, err)
	assert.Equal(t, "https://magni.example/playlist/itvonline/ITV/1_7842_0001.001", playlistURL)
}

func TestGetPageDataCaching(t *testing.T) {
	client, requests := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetPageData(ctx, "/watch/categories")
	require.NoError(t, err)
	_, err = client.GetPageData(ctx, "/watch/categories")
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())

	// A different page is a cache miss.
	_, err = client.GetPageData(ctx, "/watch/miss-marple/7a0001")
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
}

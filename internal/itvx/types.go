package itvx

import "encoding/json"

// Item is a single listing entry shaped for the host's menu system:
// a label, artwork, display info and the parameters needed to open it.
type Item struct {
	Label      string
	EntityType string // "programme", "episode", "special", "category", "collection"
	Playable   bool
	Art        Art
	Info       Info
	Params     Params
}

// Art holds the artwork URLs of a listing entry.
type Art struct {
	Thumb  string
	Fanart string
	Poster string
}

// Info holds the display info of a listing entry.
type Info struct {
	Title     string
	Plot      string
	SortTitle string
	Date      string // original broadcast timestamp, when known
	Episode   int    // episode number within its series, 0 when unknown
	Duration  int    // seconds, 0 when unknown
}

// Params holds what's needed to navigate into or play a listing entry.
type Params struct {
	URL    string // watch-page path or API URL of the target
	Path   string // site path used for navigation, e.g. a category page
	Slider string // main-page slider key for collection entries
	Name   string // display name carried along for playback
}

// SeriesListing is one series of a programme with its episodes.
type SeriesListing struct {
	Label        string
	SeriesNumber int
	EpisodeCount int
	Art          Art
	Info         Info
	Episodes     []Item
}

// Channel is a live channel with its upcoming schedule slots.
type Channel struct {
	ID          string
	Name        string
	ChannelType string // "simulcast" or "fast"
	Backdrop    string
	Logo        string
	Slots       []Slot
}

// Slot is one scheduled programme on a live channel.
type Slot struct {
	ProgrammeTitle string
	Details        string
	StartTime      string // local wall-clock "15:04"
	// OrigStart is the programme's UTC start in RFC 3339 for channels that
	// support play-from-start. Empty for FAST channels.
	OrigStart string
}

// ── Upstream JSON shapes ─────────────────────────────────────────────────────
// These mirror the undocumented responses; all parsing is tolerant since the
// shapes change without notice.

type encodedID struct {
	LetterA string `json:"letterA"`
}

type synopses struct {
	Ninety            string `json:"ninety"`
	Epg               string `json:"epg"`
	ProgrammeSynopsis string `json:"programmeSynopsis"`
}

type heroRaw struct {
	ContentType        string    `json:"contentType"`
	Title              string    `json:"title"`
	ImageTemplate      string    `json:"imageTemplate"`
	Description        string    `json:"description"`
	Genre              string    `json:"genre"`
	ContentInfo        string    `json:"contentInfo"`
	EncodedProgrammeID encodedID `json:"encodedProgrammeId"`
	EncodedEpisodeID   encodedID `json:"encodedEpisodeId"`
	CollectionID       string    `json:"collectionId"`
}

type subnavItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type categoriesPage struct {
	Subnav struct {
		Items []subnavItem `json:"items"`
	} `json:"subnav"`
}

type programmeRaw struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	ImageTemplate      string    `json:"imageTemplate"`
	ContentInfo        string    `json:"contentInfo"`
	Tier               []string  `json:"tier"`
	EncodedProgrammeID encodedID `json:"encodedProgrammeId"`
	EncodedEpisodeID   encodedID `json:"encodedEpisodeId"`
}

type categoryPage struct {
	Category struct {
		PathSegment string `json:"pathSegment"`
	} `json:"category"`
	Programmes []programmeRaw `json:"programmes"`
}

type episodeRaw struct {
	EpisodeTitle         string      `json:"episodeTitle"`
	Episode              int         `json:"episode"`
	Series               json.Number `json:"series"` // may be a number or "others"
	Description          string      `json:"description"`
	ImageTemplate        string      `json:"imageTemplate"`
	BroadcastDateTime    string      `json:"broadcastDateTime"`
	NotFormattedDuration string      `json:"notFormattedDuration"`
	ContentInfo          string      `json:"contentInfo"`
	EncodedProgrammeID   encodedID   `json:"encodedProgrammeId"`
	EncodedEpisodeID     encodedID   `json:"encodedEpisodeId"`
}

type seriesRaw struct {
	Title                       string       `json:"title"`
	SeriesNumber                int          `json:"seriesNumber"`
	SeriesAvailableEpisodeCount int          `json:"seriesAvailableEpisodeCount"`
	Episodes                    []episodeRaw `json:"episodes"`
}

type brandPage struct {
	Title struct {
		Brand struct {
			Title         string      `json:"title"`
			ImageTemplate string      `json:"imageTemplate"`
			Synopses      synopses    `json:"synopses"`
			Series        []seriesRaw `json:"series"`
		} `json:"brand"`
	} `json:"title"`
}

type sliderRaw struct {
	Header struct {
		Title string `json:"title"`
	} `json:"header"`
	Items []heroRaw `json:"items"`
}

type mainPage struct {
	HeroContent      []heroRaw            `json:"heroContent"`
	EditorialSliders map[string]sliderRaw `json:"editorialSliders"`
	Trending         sliderRaw            `json:"trendingSliderContent"`
	NewsShortform    sliderRaw            `json:"newsShortformSliderContent"`
}

type collectionPage struct {
	Collection struct {
		Headline string    `json:"headline"`
		Shows    []heroRaw `json:"shows"`
	} `json:"collection"`
}

type slotProgrammeRaw struct {
	DisplayTitle         string `json:"displayTitle"`
	DetailedDisplayTitle string `json:"detailedDisplayTitle"`
	Start                string `json:"start"`
}

type channelRaw struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ChannelType string `json:"channelType"`
	Images      struct {
		Logo string `json:"logo"`
	} `json:"images"`
	Slots struct {
		Now  slotProgrammeRaw `json:"now"`
		Next slotProgrammeRaw `json:"next"`
	} `json:"slots"`
}

type nowNextResponse struct {
	Channels []channelRaw `json:"channels"`
	Images   struct {
		Backdrop string `json:"backdrop"`
	} `json:"images"`
}

type searchResultRaw struct {
	EntityType string          `json:"entityType"`
	Data       json.RawMessage `json:"data"`
}

type searchResponse struct {
	Results []searchResultRaw `json:"results"`
}

type searchProgrammeRaw struct {
	ProgrammeTitle         string `json:"programmeTitle"`
	Synopsis               string `json:"synopsis"`
	TotalAvailableEpisodes int    `json:"totalAvailableEpisodes"`
	LegacyID               struct {
		APIEncoded string `json:"apiEncoded"`
	} `json:"legacyId"`
	LatestAvailableEpisode struct {
		ImageHref string `json:"imageHref"`
	} `json:"latestAvailableEpisode"`
}

type searchSpecialRaw struct {
	SpecialTitle string `json:"specialTitle"`
	Synopsis     string `json:"synopsis"`
	ImageHref    string `json:"imageHref"`
	ProductionID string `json:"productionId"`
}

package itvx

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoPageData is returned when a page doesn't carry the embedded
// __NEXT_DATA__ script block the site normally renders its data into.
var ErrNoPageData = errors.New("itvx: no embedded page data found")

// ImageProfile describes the fixed rendition parameters used to expand an
// upstream image URL template.
type ImageProfile struct {
	Width   int
	Height  int
	Quality int
}

// The site delivers one image URL template per item; the profiles pick the
// renditions the menu artwork slots expect.
var (
	ProfileThumb  = ImageProfile{Width: 960, Height: 540, Quality: 80}
	ProfileFanart = ImageProfile{Width: 1920, Height: 1080, Quality: 80}
	ProfilePoster = ImageProfile{Width: 720, Height: 1080, Quality: 80}
)

// ExpandImage fills an upstream image URL template with the profile's
// renditions. Templates carry placeholders like "{width}", "{height}",
// "{quality}", "{blur}", "{bg}" and "{imageFormat}".
func ExpandImage(template string, p ImageProfile) string {
	if template == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{width}", fmt.Sprint(p.Width),
		"{height}", fmt.Sprint(p.Height),
		"{quality}", fmt.Sprint(p.Quality),
		"{blur}", "0",
		"{bg}", "false",
		"{imageFormat}", "jpg",
	)
	return r.Replace(template)
}

// ScrapeJSON extracts the page data the site embeds in the
// <script id="__NEXT_DATA__"> block and returns its props.pageProps object.
func ScrapeJSON(doc string) (json.RawMessage, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("itvx: parse html: %w", err)
	}
	script := findNextDataScript(root)
	if script == "" {
		return nil, ErrNoPageData
	}

	var data struct {
		Props struct {
			PageProps json.RawMessage `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script), &data); err != nil {
		return nil, fmt.Errorf("itvx: decode page data: %w", err)
	}
	if len(data.Props.PageProps) == 0 {
		return nil, ErrNoPageData
	}
	return data.Props.PageProps, nil
}

// findNextDataScript walks the document tree looking for the script element
// with id "__NEXT_DATA__" and returns its text content.
func findNextDataScript(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "script" {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == "__NEXT_DATA__" {
				if n.FirstChild != nil {
					return n.FirstChild.Data
				}
				return ""
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := findNextDataScript(c); s != "" {
			return s
		}
	}
	return ""
}

var videoIDRegex = regexp.MustCompile(`data-video-id="(.+?)"`)

// scrapeVideoID pulls the playlist URL out of an episode's HTML page.
func scrapeVideoID(doc string) (string, error) {
	m := videoIDRegex.FindStringSubmatch(doc)
	if m == nil {
		return "", errors.New("itvx: no video id on episode page")
	}
	return m[1], nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9 -]`)

// slugify turns a programme title into the URL slug the site uses for its
// watch pages.
func slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, "&", "and")
	s = slugCleaner.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	return s
}

// buildWatchPath builds the relative watch-page path for a programme and,
// when given, a specific episode. IDs are the site's letter-A encoded ids.
func buildWatchPath(title, programmeID string, episodeID ...string) string {
	path := "/watch/" + slugify(title) + "/" + programmeID
	if len(episodeID) > 0 && episodeID[0] != "" {
		path += "/" + episodeID[0]
	}
	return path
}

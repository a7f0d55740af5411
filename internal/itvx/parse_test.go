package itvx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandImage(t *testing.T) {
	template := "https://img.example/x.jpg?w={width}&h={height}&q={quality}&blur={blur}&bg={bg}&fmt={imageFormat}"

	assert.Equal(t,
		"https://img.example/x.jpg?w=960&h=540&q=80&blur=0&bg=false&fmt=jpg",
		ExpandImage(template, ProfileThumb))
	assert.Equal(t,
		"https://img.example/x.jpg?w=1920&h=1080&q=80&blur=0&bg=false&fmt=jpg",
		ExpandImage(template, ProfileFanart))
	assert.Equal(t,
		"https://img.example/x.jpg?w=720&h=1080&q=80&blur=0&bg=false&fmt=jpg",
		ExpandImage(template, ProfilePoster))
	assert.Empty(t, ExpandImage("", ProfileThumb))
}

func TestScrapeJSON(t *testing.T) {
	doc := `<html><head>
		<script src="/app.js"></script>
		<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"hello":"world"}}}</script>
	</head><body></body></html>`

	data, err := ScrapeJSON(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(data))
}

func TestScrapeJSONMissing(t *testing.T) {
	for _, doc := range []string{
		"<html><body><p>no data here</p></body></html>",
		`<html><head><script id="__NEXT_DATA__" type="application/json">{"props":{}}</script></head></html>`,
	} {
		_, err := ScrapeJSON(doc)
		assert.ErrorIs(t, err, ErrNoPageData)
	}
}

func TestScrapeVideoID(t *testing.T) {
	doc := `<div class="player" data-video-id="https://magni.example/playlist/itvonline/ITV/1_2345_0001.001" data-x="y">`
	id, err := scrapeVideoID(doc)
	require.NoError(t, err)
	assert.Equal(t, "https://magni.example/playlist/itvonline/ITV/1_2345_0001.001", id)

	_, err = scrapeVideoID("<div>nothing</div>")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Chase", "the-chase"},
		{"Ant & Dec's Saturday Night Takeaway", "ant-and-decs-saturday-night-takeaway"},
		{"Harry Potter: 20th Anniversary", "harry-potter-20th-anniversary"},
		{"  spaced   out  ", "spaced-out"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.title), tt.title)
	}
}

func TestBuildWatchPath(t *testing.T) {
	assert.Equal(t, "/watch/the-chase/1a7842", buildWatchPath("The Chase", "1a7842"))
	assert.Equal(t, "/watch/the-chase/1a7842/1a7842a0001",
		buildWatchPath("The Chase", "1a7842", "1a7842a0001"))
	assert.Equal(t, "/watch/the-chase/1a7842", buildWatchPath("The Chase", "1a7842", ""))
}

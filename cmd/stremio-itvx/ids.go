package main

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Meta and stream ids encode the target they point at, so the addon stays
// stateless between requests. A programme id carries the programme's watch
// page path, a playable id carries either an episode's watch page path or a
// ready playlist URL, and a live id carries the channel id.
const (
	programmeIDPrefix = "itvx:p:"
	playableIDPrefix  = "itvx:e:"
	liveIDPrefix      = "itvxlive:"
)

func encodeID(prefix, target string) string {
	return prefix + base64.RawURLEncoding.EncodeToString([]byte(target))
}

func decodeID(id, prefix string) (string, error) {
	raw, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return "", fmt.Errorf("id %q lacks prefix %q", id, prefix)
	}
	target, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("id %q: %w", id, err)
	}
	return string(target), nil
}

// titleFromWatchPath recovers a readable name from a watch page path like
// "/watch/the-chase/1a7842". Used when an id arrives without any listing
// context to take the title from.
func titleFromWatchPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return path
	}
	words := strings.Split(parts[1], "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

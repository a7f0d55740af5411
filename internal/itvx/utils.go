package itvx

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*(?:h\b|hrs?\b|hours?\b)`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*(?:m\b|mins?\b|minutes?\b)`)
)

// durationToSeconds parses free-form duration strings like "92 mins",
// "1h 13m" or "2 hrs" as they appear in contentInfo fields. Returns 0
// when no duration can be found.
func durationToSeconds(s string) int {
	s = strings.ToLower(s)
	secs := 0
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		secs += h * 3600
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		secs += mins * 60
	}
	return secs
}

// sortTitle lowercases a title and strips a leading article so listings
// sort by the significant part of the name.
func sortTitle(title string) string {
	t := strings.ToLower(title)
	if strings.HasPrefix(t, "the ") {
		return t[4:]
	}
	return t
}

package itvx

import (
	"context"
	"net/url"
	"time"
)

// scheduleWindow is how far ahead the main live schedule is fetched.
const scheduleWindow = 4 * time.Hour

type scheduleSlotRaw struct {
	ProgrammeTitle string `json:"programmeTitle"`
	StartTime      string `json:"startTime"`
	OnAirTimeUTC   string `json:"onAirTimeUTC"`
}

type scheduleChannelRaw struct {
	Embedded struct {
		Channel struct {
			Name string `json:"name"`
		} `json:"channel"`
		Slot []scheduleSlotRaw `json:"slot"`
	} `json:"_embedded"`
}

type scheduleResponse struct {
	Embedded struct {
		Schedule []scheduleChannelRaw `json:"schedule"`
	} `json:"_embedded"`
}

// liveSchedule fetches the full schedule of the main channels for the next
// few hours, keyed by channel name. The main channels carry a proper
// schedule here, unlike the now/next feed, and their slots include the
// original UTC start needed for play-from-start.
func (c *Client) liveSchedule(ctx context.Context) (map[string][]Slot, error) {
	from := c.now().UTC().Truncate(time.Hour)
	to := from.Add(scheduleWindow)

	params := url.Values{}
	params.Set("from", from.Format("2006-01-02T15:04:05"))
	params.Set("to", to.Format("2006-01-02T15:04:05"))
	params.Set("platformTag", "dotcom")
	params.Set("featureSet", "mpeg-dash,widevine")

	var resp scheduleResponse
	if err := c.fetcher.GetJSON(ctx, c.scheduleURL, params, &resp); err != nil {
		return nil, err
	}

	schedule := make(map[string][]Slot, len(resp.Embedded.Schedule))
	for _, ch := range resp.Embedded.Schedule {
		slots := make([]Slot, 0, len(ch.Embedded.Slot))
		for _, s := range ch.Embedded.Slot {
			slot := Slot{
				ProgrammeTitle: s.ProgrammeTitle,
				Details:        s.ProgrammeTitle,
				StartTime:      localClock(s.StartTime),
			}
			if len(s.OnAirTimeUTC) >= 19 {
				slot.OrigStart = s.OnAirTimeUTC[:19]
			}
			slots = append(slots, slot)
		}
		schedule[ch.Embedded.Channel.Name] = slots
	}
	return schedule, nil
}

// localClock converts an RFC 3339 style timestamp into a local "15:04"
// wall-clock string. Returns the input unchanged when it cannot be parsed.
func localClock(ts string) string {
	if len(ts) > 19 {
		ts = ts[:19]
	}
	t, err := time.Parse("2006-01-02T15:04:05", ts)
	if err != nil {
		return ts
	}
	return t.In(time.Local).Format("15:04")
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/stale"
)

// Event is one macro calendar entry.
type Event struct {
	Title      string
	At         time.Time
	Importance int
}

type CalendarClient struct {
	hc         HTTPDoer
	baseURL    string
	token      string
	windowDays int
	clock      stale.Clock
}

func NewCalendarClient(cfg config.Config, hc HTTPDoer, clock stale.Clock) *CalendarClient {
	return &CalendarClient{
		hc:         hc,
		baseURL:    cfg.FinnhubBaseURL,
		token:      cfg.FinnhubAPIKey,
		windowDays: cfg.CalendarWindowDays,
		clock:      clock,
	}
}

func (c *CalendarClient) Online() bool { return c.token != "" }

// Events returns the calendar entries between today and the end of the
// configured window.
func (c *CalendarClient) Events(ctx context.Context) ([]Event, error) {
	const op = "calendar"
	if c.token == "" {
		return nil, failure(op, MissingCredential, nil)
	}
	now := c.clock.Now().UTC()
	q := url.Values{}
	q.Set("from", now.Format(time.DateOnly))
	q.Set("to", now.AddDate(0, 0, c.windowDays).Format(time.DateOnly))
	q.Set("token", c.token)

	body, err := doGet(ctx, c.hc, op, c.baseURL+"/calendar/economic?"+q.Encode())
	if err != nil {
		return nil, err
	}
	events, err := DecodeCalendar(body)
	if err != nil {
		return nil, failure(op, UnparsableBody, err)
	}
	return events, nil
}

// calendarEnvelope selects the response shape. Exactly one known list field
// must be present.
type calendarEnvelope struct {
	EconomicCalendar json.RawMessage `json:"economicCalendar"`
	Data             json.RawMessage `json:"data"`
}

type finnhubEvent struct {
	Event   string `json:"event"`
	Time    string `json:"time"`
	Impact  string `json:"impact"`
	Country string `json:"country"`
}

type listedEvent struct {
	Name       string `json:"name"`
	Datetime   string `json:"datetime"`
	Importance *int   `json:"importance"`
}

var errUnknownShape = errors.New("unknown calendar response shape")

// DecodeCalendar parses one of the known provider shapes. Entries without a
// title or a parsable time are dropped; an unknown shape is an error.
func DecodeCalendar(body []byte) ([]Event, error) {
	var env calendarEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	switch {
	case isList(env.EconomicCalendar):
		return parseFinnhubEvents(env.EconomicCalendar)
	case isList(env.Data):
		return parseListedEvents(env.Data)
	default:
		return nil, errUnknownShape
	}
}

func isList(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}

func parseFinnhubEvents(raw json.RawMessage) ([]Event, error) {
	var list []finnhubEvent
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(list))
	for _, e := range list {
		title := strings.TrimSpace(e.Event)
		at, err := time.ParseInLocation(time.DateTime, strings.TrimSpace(e.Time), time.UTC)
		if err != nil {
			at, err = time.Parse(time.RFC3339, strings.TrimSpace(e.Time))
		}
		if title == "" || err != nil {
			continue
		}
		out = append(out, Event{Title: title, At: at.UTC(), Importance: impactLevel(e.Impact)})
	}
	return out, nil
}

func parseListedEvents(raw json.RawMessage) ([]Event, error) {
	var list []listedEvent
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(list))
	for _, e := range list {
		title := strings.TrimSpace(e.Name)
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Datetime))
		if title == "" || err != nil {
			continue
		}
		level := 3
		if e.Importance != nil {
			level = *e.Importance
		}
		out = append(out, Event{Title: title, At: at.UTC(), Importance: clampLevel(level)})
	}
	return out, nil
}

// impactLevel maps a provider impact word or number onto 1..5.
func impactLevel(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return 1
	case "medium":
		return 3
	case "high":
		return 5
	case "":
		return 3
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 3
	}
	return clampLevel(n)
}

func clampLevel(n int) int {
	return min(5, max(1, n))
}

// SelectEvent picks the event to display among those after now.
// CalendarNearest takes the soonest; CalendarImportance takes the most
// important, the soonest among equals.
func SelectEvent(events []Event, now time.Time, policy string) (Event, bool) {
	var best Event
	found := false
	for _, e := range events {
		if !e.At.After(now) {
			continue
		}
		if !found {
			best, found = e, true
			continue
		}
		switch policy {
		case config.CalendarImportance:
			if e.Importance > best.Importance || (e.Importance == best.Importance && e.At.Before(best.At)) {
				best = e
			}
		default:
			if e.At.Before(best.At) {
				best = e
			}
		}
	}
	return best, found
}

package services

import (
	"time"

	"market-overlay/backend-go/internal/models"
)

// Offline readings shown until the first successful refresh.
var mockQuotes = map[string]Quote{
	"NASDAQ":  {Price: 19203.40, PercentChange: 1.25},
	"S&P 500": {Price: 5910.10, PercentChange: 0.85},
	"DOW":     {Price: 43900.50, PercentChange: 0.45},
	"VIX":     {Price: 14.20, PercentChange: -3.50},
	"GOLD":    {Price: 2650.00, PercentChange: 0.90},
	"BITCOIN": {Price: 99100.00, PercentChange: 4.20},
	"USD IDX": {Price: 103.20, PercentChange: -0.10},
	"EUR/USD": {Price: 1.0850, PercentChange: 0.20},
	"USD/JPY": {Price: 147.80, PercentChange: -0.50},
	"OIL":     {Price: 75.10, PercentChange: 1.10},
	"NVDA":    {Price: 140.50, PercentChange: 2.50},
	"TSLA":    {Price: 345.00, PercentChange: -1.20},
}

var mockMovers = []SymbolQuote{
	{Symbol: "NVDA", Quote: Quote{Price: 140.50, PercentChange: 2.5}},
	{Symbol: "TSLA", Quote: Quote{Price: 345.00, PercentChange: -1.2}},
	{Symbol: "PLTR", Quote: Quote{Price: 65.20, PercentChange: 8.4}},
	{Symbol: "MSTR", Quote: Quote{Price: 490.00, PercentChange: 12.1}},
	{Symbol: "COIN", Quote: Quote{Price: 280.50, PercentChange: 5.3}},
	{Symbol: "NFLX", Quote: Quote{Price: 850.10, PercentChange: -0.5}},
}

// MockBoard is the seed board. Descriptors without a mock reading get a
// placeholder so every descriptor is present.
func MockBoard(boards BoardSet, rankKey string, n int, asOf time.Time) models.Board {
	rows := func(ds []models.Descriptor) []models.DisplayRow {
		out := make([]models.DisplayRow, 0, len(ds))
		for _, d := range ds {
			q, ok := mockQuotes[d.Key]
			if !ok {
				out = append(out, Placeholder(d))
				continue
			}
			out = append(out, Normalize(d, q, nil, nil))
		}
		return out
	}
	ranked := Rank(mockMovers, rankKey, n)
	return models.Board{
		Top:     rows(boards.Top),
		Tape:    rows(boards.Tape),
		Gainers: ranked.Gainers,
		Losers:  ranked.Losers,
		Movers:  ranked.Movers,
		Meta:    models.Meta{AsOf: asOf.UTC(), Ok: false},
	}
}

type mockEvent struct {
	title      string
	importance int
}

var mockEvents = []mockEvent{
	{"FOMC RATE DECISION", 5},
	{"CPI DATA RELEASE", 5},
	{"NVIDIA EARNINGS CALL", 5},
	{"JOBS REPORT (NFP)", 4},
	{"TESLA PRODUCT EVENT", 4},
}

// MockCalendar returns a placeholder event a few hours after now. The pick
// rotates daily so the overlay does not look frozen.
func MockCalendar(now time.Time) models.Calendar {
	ev := mockEvents[now.YearDay()%len(mockEvents)]
	at := now.Add(4*time.Hour + 30*time.Minute).Truncate(time.Hour).UTC()
	return models.Calendar{
		Status: "mock",
		Next: &models.CalendarEvent{
			Title:      ev.title,
			ISO:        at.Format(time.RFC3339),
			TimeET:     FormatET(at),
			Importance: ev.importance,
		},
		Meta: models.Meta{AsOf: now.UTC(), Ok: false},
	}
}

const (
	digestOffline    = "Digest offline."
	digestError      = "Digest error."
	digestParseError = "Digest parse error."
)

// MockDigest is the seed digest shown before any feed was read.
func MockDigest(now time.Time) models.Digest {
	return models.Digest{
		Now:       digestOffline,
		News:      []models.DigestItem{},
		UpdatedAt: now.UTC(),
		Meta:      models.Meta{AsOf: now.UTC(), Ok: false},
	}
}

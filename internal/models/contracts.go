package models

import "time"

// Placeholder is the display value of a row whose quote is unavailable.
const Placeholder = "--"

type InstrumentClass string

const (
	ClassEquity InstrumentClass = "equity"
	ClassFX     InstrumentClass = "fx"
)

// Descriptor binds a display label to a provider symbol.
type Descriptor struct {
	Key    string          `json:"key" yaml:"key"`
	Symbol string          `json:"symbol" yaml:"symbol"`
	Class  InstrumentClass `json:"class,omitempty" yaml:"class"`
}

// DisplayRow is one instrument on the overlay. Pct is nil when a percent
// change is meaningless for the instrument.
type DisplayRow struct {
	Key   string   `json:"k"`
	Value string   `json:"v"`
	Pct   *float64 `json:"pct"`
	Tag   string   `json:"tag,omitempty"`
}

type Meta struct {
	AsOf time.Time `json:"asOf"`
	Ok   bool      `json:"ok"`
}

type Board struct {
	Top     []DisplayRow `json:"top"`
	Tape    []DisplayRow `json:"tape"`
	Gainers []DisplayRow `json:"gainers"`
	Losers  []DisplayRow `json:"losers"`
	Movers  []DisplayRow `json:"movers"`
	Meta    Meta         `json:"meta"`
}

type CalendarEvent struct {
	Title      string `json:"title"`
	ISO        string `json:"iso"`
	TimeET     string `json:"timeET"`
	Importance int    `json:"importance"`
}

type Calendar struct {
	Status string         `json:"status"`
	Next   *CalendarEvent `json:"next"`
	Meta   Meta           `json:"meta"`
}

// FeedItem is one RSS item.
type FeedItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	PubDate string `json:"pubDate,omitempty"`
	TimeET  string `json:"timeET"`
}

type News struct {
	Items     []FeedItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Breaking struct {
	TimeET   string `json:"timeET"`
	Headline string `json:"headline"`
	Level    int    `json:"level"`
}

type DigestItem struct {
	TimeET    string  `json:"timeET"`
	Title     string  `json:"title"`
	Level     int     `json:"level"`
	Sentiment string  `json:"sentiment"`
	Link      *string `json:"link"`
}

type Digest struct {
	Now       string       `json:"now"`
	Breaking  *Breaking    `json:"breaking"`
	News      []DigestItem `json:"news"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Meta      Meta         `json:"meta"`
}

type HealthResponse struct {
	Ok       bool               `json:"ok"`
	TsISO    string             `json:"tsISO"`
	Service  string             `json:"service"`
	Version  string             `json:"version"`
	Cache    string             `json:"cache"`
	Env      map[string]bool    `json:"env"`
	SlotAges map[string]float64 `json:"slot_age_s"`
}

package services

import (
	"strings"
	"time"
	_ "time/tzdata" // containers often ship without zoneinfo
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var eastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// FormatPrice renders price with a fixed number of decimals and thousands
// separators, e.g. 19203.4 -> "19,203.40".
func FormatPrice(price float64, places int32) string {
	d := decimal.NewFromFloat(price).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(places)
	_, frac, _ := strings.Cut(fixed, ".")
	grouped := humanize.Comma(d.Truncate(0).IntPart())
	if places <= 0 {
		return sign + grouped
	}
	return sign + grouped + "." + frac
}

// FormatET renders t as a compact US Eastern wall-clock time, e.g. "09:30AM".
func FormatET(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(eastern).Format("03:04PM")
}

// clamp trims s and shortens it to at most n runes, ending with an ellipsis
// when cut.
func clamp(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n-1]), " \t") + "…"
}

// truncate shortens s to at most n runes without an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

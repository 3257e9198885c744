package services

import (
	"math"

	"market-overlay/backend-go/internal/models"
)

// Normalize turns one descriptor's fetch outcome into a display row. A failed
// fetch reuses the row with the same key from prev, or a placeholder.
func Normalize(d models.Descriptor, q Quote, err error, prev []models.DisplayRow) models.DisplayRow {
	if err != nil {
		if row, ok := findRow(prev, d.Key); ok {
			return row
		}
		return Placeholder(d)
	}
	if d.Class == models.ClassFX {
		return models.DisplayRow{Key: d.Key, Value: FormatPrice(q.Price, 4)}
	}
	return models.DisplayRow{Key: d.Key, Value: FormatPrice(q.Price, 2), Pct: pct(q.PercentChange)}
}

// Placeholder is the row of a descriptor that has never been quoted.
func Placeholder(d models.Descriptor) models.DisplayRow {
	row := models.DisplayRow{Key: d.Key, Value: models.Placeholder}
	if d.Class != models.ClassFX {
		row.Pct = pct(0)
	}
	return row
}

// moverRow is the row of a ranked mover, tagged by the size of its move.
func moverRow(symbol string, q Quote) models.DisplayRow {
	return models.DisplayRow{
		Key:   Label(symbol),
		Value: FormatPrice(q.Price, 2),
		Pct:   pct(q.PercentChange),
		Tag:   momentumTag(q.PercentChange),
	}
}

func momentumTag(p float64) string {
	switch a := math.Abs(p); {
	case a >= 5 && p > 0:
		return "surge"
	case a >= 5:
		return "plunge"
	case a >= 3:
		return "active"
	default:
		return ""
	}
}

func findRow(rows []models.DisplayRow, key string) (models.DisplayRow, bool) {
	for _, r := range rows {
		if r.Key == key {
			return r, true
		}
	}
	return models.DisplayRow{}, false
}

func pct(v float64) *float64 { return &v }

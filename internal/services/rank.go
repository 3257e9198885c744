package services

import (
	"math"
	"sort"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
)

// SymbolQuote is a successful quote of a universe ticker.
type SymbolQuote struct {
	Symbol string
	Quote  Quote
}

// Ranked holds the three ranked mover lists.
type Ranked struct {
	Gainers []models.DisplayRow
	Losers  []models.DisplayRow
	Movers  []models.DisplayRow
}

// Rank sorts successful quotes into gainers (rising, largest first), losers
// (falling, largest drop first) and movers ordered by key, each cut to n.
// Equal changes keep input order.
func Rank(quotes []SymbolQuote, key string, n int) Ranked {
	var up, down []SymbolQuote
	for _, q := range quotes {
		switch {
		case q.Quote.PercentChange > 0:
			up = append(up, q)
		case q.Quote.PercentChange < 0:
			down = append(down, q)
		}
	}
	sort.SliceStable(up, func(i, j int) bool { return up[i].Quote.PercentChange > up[j].Quote.PercentChange })
	sort.SliceStable(down, func(i, j int) bool { return down[i].Quote.PercentChange < down[j].Quote.PercentChange })

	all := append([]SymbolQuote(nil), quotes...)
	if key == config.RankAbsChange {
		sort.SliceStable(all, func(i, j int) bool {
			return math.Abs(all[i].Quote.PercentChange) > math.Abs(all[j].Quote.PercentChange)
		})
	} else {
		sort.SliceStable(all, func(i, j int) bool { return all[i].Quote.PercentChange > all[j].Quote.PercentChange })
	}

	return Ranked{
		Gainers: topRows(up, n),
		Losers:  topRows(down, n),
		Movers:  topRows(all, n),
	}
}

func topRows(in []SymbolQuote, n int) []models.DisplayRow {
	if len(in) > n {
		in = in[:n]
	}
	out := make([]models.DisplayRow, 0, len(in))
	for _, q := range in {
		out = append(out, moverRow(q.Symbol, q.Quote))
	}
	return out
}

package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
)

func keys(rows []models.DisplayRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key)
	}
	return out
}

func TestRank_Direction(t *testing.T) {
	in := []SymbolQuote{
		{Symbol: "A", Quote: Quote{Price: 10, PercentChange: 8}},
		{Symbol: "B", Quote: Quote{Price: 20, PercentChange: -5}},
		{Symbol: "C", Quote: Quote{Price: 30, PercentChange: 2}},
	}

	r := Rank(in, config.RankChange, 2)
	require.Equal(t, []string{"A", "C"}, keys(r.Gainers))
	require.Equal(t, []string{"B"}, keys(r.Losers))
	require.Equal(t, []string{"A", "C"}, keys(r.Movers))

	abs := Rank(in, config.RankAbsChange, 5)
	require.Equal(t, []string{"A", "B", "C"}, keys(abs.Movers))
	require.Equal(t, []string{"A", "C"}, keys(abs.Gainers), "gainers stay directional")
}

func TestRank_StableAndTagged(t *testing.T) {
	in := []SymbolQuote{
		{Symbol: "X", Quote: Quote{Price: 1, PercentChange: 3}},
		{Symbol: "Y", Quote: Quote{Price: 1, PercentChange: 3}},
		{Symbol: "Z", Quote: Quote{Price: 1, PercentChange: -6}},
		{Symbol: "F", Quote: Quote{Price: 1, PercentChange: 0}},
	}
	r := Rank(in, config.RankChange, 5)
	require.Equal(t, []string{"X", "Y"}, keys(r.Gainers))
	require.Equal(t, "active", r.Gainers[0].Tag)
	require.Equal(t, "plunge", r.Losers[0].Tag)
	require.Equal(t, []string{"X", "Y", "F", "Z"}, keys(r.Movers))
}

func TestRank_Empty(t *testing.T) {
	r := Rank(nil, config.RankChange, 5)
	require.Empty(t, r.Gainers)
	require.Empty(t, r.Losers)
	require.Empty(t, r.Movers)
}

func TestNormalize(t *testing.T) {
	eq := models.Descriptor{Key: "NASDAQ", Symbol: "QQQ", Class: models.ClassEquity}
	fx := models.Descriptor{Key: "EUR/USD", Symbol: "OANDA:EUR_USD", Class: models.ClassFX}

	row := Normalize(eq, Quote{Price: 19203.4, PercentChange: 1.25}, nil, nil)
	require.Equal(t, "19,203.40", row.Value)
	require.NotNil(t, row.Pct)
	require.InDelta(t, 1.25, *row.Pct, 1e-9)

	row = Normalize(fx, Quote{Price: 1.08504, PercentChange: 0.2}, nil, nil)
	require.Equal(t, "1.0850", row.Value)
	require.Nil(t, row.Pct)

	failed := errors.New("down")
	prev := []models.DisplayRow{{Key: "NASDAQ", Value: "19,000.00", Pct: pct(-0.5)}}
	require.Equal(t, prev[0], Normalize(eq, Quote{}, failed, prev))

	row = Normalize(eq, Quote{}, failed, nil)
	require.Equal(t, models.Placeholder, row.Value)
	require.Equal(t, Placeholder(eq), row)
	require.Nil(t, Normalize(fx, Quote{}, failed, nil).Pct)
}

package services

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"market-overlay/backend-go/internal/models"
)

//go:embed boards.yaml
var defaultBoards []byte

// BoardSet is the static definition of the quote board.
type BoardSet struct {
	Top      []models.Descriptor `yaml:"top"`
	Tape     []models.Descriptor `yaml:"tape"`
	Universe []string            `yaml:"universe"`
}

// labels maps provider symbols to display labels where they differ.
var labels = map[string]string{
	"QQQ":             "NASDAQ",
	"SPY":             "S&P 500",
	"DIA":             "DOW",
	"VIXY":            "VIX",
	"GLD":             "GOLD",
	"IBIT":            "BITCOIN",
	"BINANCE:BTCUSDT": "BITCOIN",
	"UUP":             "USD IDX",
	"USO":             "OIL",
	"OANDA:EUR_USD":   "EUR/USD",
	"OANDA:USD_JPY":   "USD/JPY",
}

// Label returns the display label of a provider symbol.
func Label(symbol string) string {
	if l, ok := labels[symbol]; ok {
		return l
	}
	return symbol
}

// LoadBoards reads the board definition from path, or the embedded default
// when path is empty.
func LoadBoards(path string) (BoardSet, error) {
	data := defaultBoards
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return BoardSet{}, fmt.Errorf("read boards: %w", err)
		}
		data = b
	}
	return ParseBoards(data)
}

func ParseBoards(data []byte) (BoardSet, error) {
	var set BoardSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return BoardSet{}, fmt.Errorf("parse boards: %w", err)
	}
	var err error
	if set.Top, err = normalizeGroup("top", set.Top); err != nil {
		return BoardSet{}, err
	}
	if set.Tape, err = normalizeGroup("tape", set.Tape); err != nil {
		return BoardSet{}, err
	}
	if len(set.Top) == 0 {
		return BoardSet{}, errors.New("boards: top group is empty")
	}
	universe := make([]string, 0, len(set.Universe))
	seen := make(map[string]struct{}, len(set.Universe))
	for _, s := range set.Universe {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		universe = append(universe, s)
	}
	set.Universe = universe
	return set, nil
}

func normalizeGroup(name string, in []models.Descriptor) ([]models.Descriptor, error) {
	out := make([]models.Descriptor, 0, len(in))
	keys := make(map[string]struct{}, len(in))
	for i, d := range in {
		d.Symbol = strings.TrimSpace(d.Symbol)
		if d.Symbol == "" {
			return nil, fmt.Errorf("boards: %s[%d] has no symbol", name, i)
		}
		d.Key = strings.TrimSpace(d.Key)
		if d.Key == "" {
			d.Key = Label(d.Symbol)
		}
		if _, dup := keys[d.Key]; dup {
			return nil, fmt.Errorf("boards: %s has duplicate key %q", name, d.Key)
		}
		keys[d.Key] = struct{}{}
		switch d.Class {
		case "":
			d.Class = models.ClassEquity
		case models.ClassEquity, models.ClassFX:
		default:
			return nil, fmt.Errorf("boards: %s[%d] has unknown class %q", name, i, d.Class)
		}
		out = append(out, d)
	}
	return out, nil
}

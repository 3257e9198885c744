package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/stale"
)

// QuoteSource is what the board needs from a quote provider.
type QuoteSource interface {
	Online() bool
	Quote(ctx context.Context, symbol string) (Quote, error)
}

type quoteResult struct {
	q   Quote
	err error
}

type BoardService struct {
	cfg    config.Config
	boards BoardSet
	quotes QuoteSource
	slot   *stale.Slot[models.Board]
	clock  stale.Clock
	log    *zap.Logger
}

func NewBoardService(cfg config.Config, boards BoardSet, quotes QuoteSource, slot *stale.Slot[models.Board], clock stale.Clock, log *zap.Logger) *BoardService {
	s := &BoardService{cfg: cfg, boards: boards, quotes: quotes, slot: slot, clock: clock, log: log}
	slot.Seed(MockBoard(boards, cfg.MoversRank, cfg.MoversTopN, clock.Now()))
	return s
}

// Snapshot returns the board, refreshing it from the provider when the slot
// is no longer fresh.
func (s *BoardService) Snapshot(ctx context.Context) (models.Board, stale.Source) {
	return s.slot.Serve(ctx, s.cfg.CacheTTLBoard, s.quotes.Online(), s.aggregate)
}

func (s *BoardService) aggregate(ctx context.Context, prev models.Board) (models.Board, bool) {
	results := s.resolve(ctx, s.symbols())

	out := models.Board{
		Top:  make([]models.DisplayRow, 0, len(s.boards.Top)),
		Tape: make([]models.DisplayRow, 0, len(s.boards.Tape)),
	}
	freshTop := 0
	for _, d := range s.boards.Top {
		r := results[d.Symbol]
		if r.err == nil {
			freshTop++
		}
		out.Top = append(out.Top, Normalize(d, r.q, r.err, prev.Top))
	}
	for _, d := range s.boards.Tape {
		r := results[d.Symbol]
		out.Tape = append(out.Tape, Normalize(d, r.q, r.err, prev.Tape))
	}

	live := make([]SymbolQuote, 0, len(s.boards.Universe))
	for _, sym := range s.boards.Universe {
		if r := results[sym]; r.err == nil {
			live = append(live, SymbolQuote{Symbol: sym, Quote: r.q})
		}
	}
	ranked := Rank(live, s.cfg.MoversRank, s.cfg.MoversTopN)
	out.Gainers = orPrevious(ranked.Gainers, prev.Gainers)
	out.Losers = orPrevious(ranked.Losers, prev.Losers)
	out.Movers = orPrevious(ranked.Movers, prev.Movers)

	failed := 0
	for sym, r := range results {
		if r.err != nil {
			failed++
			s.log.Debug("quote unavailable", zap.String("symbol", sym), zap.Stringer("kind", KindOf(r.err)), zap.Error(r.err))
		}
	}
	out.Meta = models.Meta{AsOf: s.clock.Now().UTC(), Ok: freshTop > 0}
	if failed > 0 {
		s.log.Warn("board refreshed with gaps",
			zap.Int("failed", failed),
			zap.Int("symbols", len(results)),
			zap.Bool("ok", out.Meta.Ok),
		)
	}
	return out, out.Meta.Ok
}

// resolve fetches every symbol once, at most FetchConcurrency at a time.
func (s *BoardService) resolve(ctx context.Context, symbols []string) map[string]quoteResult {
	res := make([]quoteResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := s.quotes.Quote(gctx, sym)
			res[i] = quoteResult{q: q, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]quoteResult, len(symbols))
	for i, sym := range symbols {
		out[sym] = res[i]
	}
	return out
}

// symbols lists every distinct provider symbol of the board.
func (s *BoardService) symbols() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(sym string) {
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	for _, d := range s.boards.Top {
		add(d.Symbol)
	}
	for _, d := range s.boards.Tape {
		add(d.Symbol)
	}
	for _, sym := range s.boards.Universe {
		add(sym)
	}
	return out
}

func orPrevious(fresh, prev []models.DisplayRow) []models.DisplayRow {
	if len(fresh) > 0 {
		return fresh
	}
	if prev == nil {
		return []models.DisplayRow{}
	}
	return prev
}

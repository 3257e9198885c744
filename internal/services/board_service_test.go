package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/stale"
)

type fakeQuotes struct {
	mu     sync.Mutex
	online bool
	quotes map[string]Quote
	fail   map[string]bool
	calls  map[string]int
}

func newFakeQuotes(quotes map[string]Quote) *fakeQuotes {
	return &fakeQuotes{online: true, quotes: quotes, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeQuotes) Online() bool { return f.online }

func (f *fakeQuotes) Quote(_ context.Context, symbol string) (Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	q, ok := f.quotes[symbol]
	if !ok || f.fail[symbol] {
		return Quote{}, failure("quote", NonSuccessStatus, nil)
	}
	return q, nil
}

func (f *fakeQuotes) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeQuotes) setFail(symbols ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[string]bool{}
	for _, s := range symbols {
		f.fail[s] = true
	}
}

var testBoards = BoardSet{
	Top: []models.Descriptor{
		{Key: "A", Symbol: "AAA", Class: models.ClassEquity},
		{Key: "B", Symbol: "BBB", Class: models.ClassEquity},
	},
	Tape: []models.Descriptor{
		{Key: "EUR/USD", Symbol: "OANDA:EUR_USD", Class: models.ClassFX},
		{Key: "A", Symbol: "AAA", Class: models.ClassEquity},
	},
	Universe: []string{"AAA", "XXX", "YYY"},
}

func newBoardService(t *testing.T, q QuoteSource) (*BoardService, *stale.ManualClock, *stale.Slot[models.Board]) {
	t.Helper()
	clock := stale.NewManualClock(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	slot := stale.New[models.Board]("board", stale.Options{Clock: clock})
	return NewBoardService(testConfig(), testBoards, q, slot, clock, zap.NewNop()), clock, slot
}

func allQuotes() map[string]Quote {
	return map[string]Quote{
		"AAA":           {Price: 1234.5, PercentChange: 1.5},
		"BBB":           {Price: 50, PercentChange: -0.4},
		"OANDA:EUR_USD": {Price: 1.08501, PercentChange: 0.1},
		"XXX":           {Price: 10, PercentChange: 6},
		"YYY":           {Price: 20, PercentChange: -2},
	}
}

func TestBoard_FreshPass(t *testing.T) {
	q := newFakeQuotes(allQuotes())
	svc, _, _ := newBoardService(t, q)

	b, src := svc.Snapshot(context.Background())
	require.Equal(t, stale.SourceFresh, src)
	require.True(t, b.Meta.Ok)
	require.Equal(t, []string{"A", "B"}, keys(b.Top))
	require.Equal(t, []string{"EUR/USD", "A"}, keys(b.Tape))
	require.Equal(t, "1,234.50", b.Top[0].Value)
	require.Equal(t, "1.0850", b.Tape[0].Value)
	require.Nil(t, b.Tape[0].Pct)

	require.Equal(t, []string{"XXX", "AAA"}, keys(b.Gainers))
	require.Equal(t, "surge", b.Gainers[0].Tag)
	require.Equal(t, []string{"YYY"}, keys(b.Losers))
	require.Equal(t, []string{"XXX", "AAA", "YYY"}, keys(b.Movers))

	for sym, n := range q.calls {
		require.Equal(t, 1, n, "symbol %s fetched more than once", sym)
	}
	require.Len(t, q.calls, 5)
}

func TestBoard_FreshSlotIsServedWithoutCalls(t *testing.T) {
	q := newFakeQuotes(allQuotes())
	svc, clock, _ := newBoardService(t, q)
	ctx := context.Background()

	first, _ := svc.Snapshot(ctx)
	calls := q.total()

	clock.Advance(11 * time.Second)
	second, src := svc.Snapshot(ctx)
	require.Equal(t, stale.SourceHit, src)
	require.Equal(t, calls, q.total())

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestBoard_FailedSymbolKeepsPreviousRow(t *testing.T) {
	q := newFakeQuotes(allQuotes())
	svc, clock, _ := newBoardService(t, q)
	ctx := context.Background()

	first, _ := svc.Snapshot(ctx)

	clock.Advance(13 * time.Second)
	q.quotes["AAA"] = Quote{Price: 1300, PercentChange: 2}
	q.setFail("BBB")

	second, src := svc.Snapshot(ctx)
	require.Equal(t, stale.SourceFresh, src)
	require.True(t, second.Meta.Ok)
	require.Equal(t, "1,300.00", second.Top[0].Value)
	require.Equal(t, first.Top[1], second.Top[1])
	require.Len(t, second.Top, len(testBoards.Top))
}

func TestBoard_EverythingFailsOnColdStart(t *testing.T) {
	q := newFakeQuotes(allQuotes())
	q.setFail("AAA", "BBB", "OANDA:EUR_USD", "XXX", "YYY")
	svc, _, slot := newBoardService(t, q)

	b, src := svc.Snapshot(context.Background())
	require.Equal(t, stale.SourceStale, src)
	require.False(t, b.Meta.Ok)
	require.Len(t, b.Top, len(testBoards.Top))
	require.Len(t, b.Tape, len(testBoards.Tape))
	for _, r := range b.Top {
		require.Equal(t, models.Placeholder, r.Value)
	}
	// EUR/USD has a seeded reading, A does not
	require.Equal(t, "1.0850", b.Tape[0].Value)
	require.Equal(t, models.Placeholder, b.Tape[1].Value)
	// the seeded movers survive an empty ranking
	require.NotEmpty(t, b.Gainers)

	_, fetched := slot.Age()
	require.False(t, fetched, "a failed pass must not overwrite the slot")
}

func TestBoard_EmptyRankingKeepsPreviousLists(t *testing.T) {
	q := newFakeQuotes(allQuotes())
	svc, clock, _ := newBoardService(t, q)
	ctx := context.Background()

	first, _ := svc.Snapshot(ctx)

	clock.Advance(13 * time.Second)
	q.setFail("AAA", "XXX", "YYY")
	second, _ := svc.Snapshot(ctx)
	require.True(t, second.Meta.Ok)
	require.Equal(t, first.Gainers, second.Gainers)
	require.Equal(t, first.Losers, second.Losers)
}

func TestBoard_OfflineServesMockWithoutCalls(t *testing.T) {
	q := newFakeQuotes(allQuotes())
	q.online = false
	svc, _, _ := newBoardService(t, q)

	b, src := svc.Snapshot(context.Background())
	require.Equal(t, stale.SourceMock, src)
	require.Zero(t, q.total())
	require.False(t, b.Meta.Ok)
	require.Len(t, b.Top, len(testBoards.Top))
}

func TestMockBoard_DefaultBoards(t *testing.T) {
	boards, err := LoadBoards("")
	require.NoError(t, err)

	b := MockBoard(boards, "change", 5, time.Now())
	require.Len(t, b.Top, len(boards.Top))
	require.Len(t, b.Tape, len(boards.Tape))
	require.Equal(t, "NASDAQ", b.Top[0].Key)
	require.Equal(t, "19,203.40", b.Top[0].Value)
	require.Equal(t, []string{"MSTR", "PLTR", "COIN", "NVDA"}, keys(b.Gainers))
	require.Len(t, b.Losers, 2)
}

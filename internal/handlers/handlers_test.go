package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"market-overlay/backend-go/internal/cache"
	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/stale"
)

type fixed[T any] struct {
	v   T
	src stale.Source
}

func (f fixed[T]) Snapshot(context.Context) (T, stale.Source) { return f.v, f.src }

type slotAge struct {
	name string
	age  time.Duration
	ok   bool
}

func (s slotAge) Name() string               { return s.name }
func (s slotAge) Age() (time.Duration, bool) { return s.age, s.ok }

var t0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func newTestAPI() *API {
	svc := Services{
		Board: fixed[models.Board]{v: models.Board{
			Top:  []models.DisplayRow{{Key: "NASDAQ", Value: "--"}},
			Meta: models.Meta{AsOf: t0},
		}, src: stale.SourceMock},
		Calendar: fixed[models.Calendar]{v: models.Calendar{Status: "ok"}, src: stale.SourceHit},
		Digest:   fixed[models.Digest]{v: models.Digest{Now: "Digest offline.", News: []models.DigestItem{}}, src: stale.SourceFresh},
		News: fixed[models.News]{v: models.News{Items: []models.FeedItem{
			{Title: "Fed holds rates steady", Link: "https://example.com/1"},
			{Title: "Oil slides on supply", Link: "https://example.com/2"},
			{Title: "Chipmaker earnings beat", Link: "https://example.com/3"},
		}, UpdatedAt: t0}, src: stale.SourceStale},
		Slots: []SlotInfo{slotAge{name: "board", age: 3 * time.Second, ok: true}, slotAge{name: "digest"}},
	}
	cfg := config.Config{RequestTimeout: time.Second, FinnhubAPIKey: "fk", NewsFeedURL: "https://example.com/rss", ServiceVersion: "1.4.2"}
	return New(cfg, cache.NewMemoryCache(), svc, stale.NewManualClock(t0), zap.NewNop())
}

func TestBoardHandler_Headers(t *testing.T) {
	api := newTestAPI()
	rec := httptest.NewRecorder()
	api.Board(rec, httptest.NewRequest(http.MethodGet, "/api/v1/board", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("unexpected cache-control %q", got)
	}
	if got := rec.Header().Get("X-Cache"); got != "mock" {
		t.Fatalf("unexpected x-cache %q", got)
	}
	var b models.Board
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Top) != 1 || b.Top[0].Value != models.Placeholder {
		t.Fatalf("unexpected board %+v", b)
	}
}

func TestCalendarAndDigestHandlers(t *testing.T) {
	api := newTestAPI()

	rec := httptest.NewRecorder()
	api.Calendar(rec, httptest.NewRequest(http.MethodGet, "/api/v1/calendar", nil))
	if rec.Header().Get("X-Cache") != "hit" {
		t.Fatalf("unexpected x-cache %q", rec.Header().Get("X-Cache"))
	}

	rec = httptest.NewRecorder()
	api.Digest(rec, httptest.NewRequest(http.MethodGet, "/api/v1/digest", nil))
	var d models.Digest
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Now != "Digest offline." || d.Breaking != nil {
		t.Fatalf("unexpected digest %+v", d)
	}
}

func TestNewsHandler_SearchAndLimit(t *testing.T) {
	api := newTestAPI()

	rec := httptest.NewRecorder()
	api.News(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news?q=oil+supply", nil))
	var n models.News
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(n.Items) != 1 || n.Items[0].Title != "Oil slides on supply" {
		t.Fatalf("unexpected items %+v", n.Items)
	}

	rec = httptest.NewRecorder()
	api.News(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news?limit=2", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(n.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(n.Items))
	}
	if rec.Header().Get("X-Cache") != "stale" {
		t.Fatalf("unexpected x-cache %q", rec.Header().Get("X-Cache"))
	}
}

func TestApplyNewsSearch(t *testing.T) {
	items := []models.FeedItem{
		{Title: "Fed sees inflation easing as CPI slows"},
		{Title: "OPEC announces supply action"},
	}

	got := applyNewsSearch(items, "fed cpi")
	if len(got) != 1 || got[0].Title != items[0].Title {
		t.Fatalf("unexpected token match %+v", got)
	}
	got = applyNewsSearch(items, "supply action")
	if len(got) != 1 || got[0].Title != items[1].Title {
		t.Fatalf("unexpected phrase match %+v", got)
	}
	if got := applyNewsSearch(items, " "); len(got) != 2 {
		t.Fatalf("blank query must keep every item, got %d", len(got))
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI()
	rec := httptest.NewRecorder()
	api.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var h models.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !h.Ok || h.Cache != "memory" || h.TsISO != "2026-03-02T15:00:00Z" || h.Version != "1.4.2" {
		t.Fatalf("unexpected health %+v", h)
	}
	if !h.Env["FINNHUB_API_KEY"] || h.Env["OPENAI_API_KEY"] {
		t.Fatalf("unexpected env flags %+v", h.Env)
	}
	if h.SlotAges["board"] != 3 {
		t.Fatalf("unexpected board age %v", h.SlotAges["board"])
	}
	if _, ok := h.SlotAges["digest"]; ok {
		t.Fatalf("a never fetched slot has no age")
	}
}

func TestParseIntParam(t *testing.T) {
	if got := parseIntParam("", 10, 1, 10); got != 10 {
		t.Fatalf("default: got %d", got)
	}
	if got := parseIntParam("50", 10, 1, 10); got != 10 {
		t.Fatalf("clamp high: got %d", got)
	}
	if got := parseIntParam("0", 10, 1, 10); got != 1 {
		t.Fatalf("clamp low: got %d", got)
	}
	if got := parseIntParam("abc", 10, 1, 10); got != 10 {
		t.Fatalf("garbage: got %d", got)
	}
}

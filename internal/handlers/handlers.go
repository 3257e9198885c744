package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"market-overlay/backend-go/internal/cache"
	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/stale"
)

// Snapshotter serves the current payload of one endpoint.
type Snapshotter[T any] interface {
	Snapshot(ctx context.Context) (T, stale.Source)
}

// SlotInfo is the read-only view of a slot the health endpoint reports.
type SlotInfo interface {
	Name() string
	Age() (time.Duration, bool)
}

type Services struct {
	Board    Snapshotter[models.Board]
	Calendar Snapshotter[models.Calendar]
	Digest   Snapshotter[models.Digest]
	News     Snapshotter[models.News]
	Slots    []SlotInfo
}

type API struct {
	cfg   config.Config
	cache cache.Cache
	svc   Services
	clock stale.Clock
	log   *zap.Logger
}

func New(cfg config.Config, c cache.Cache, svc Services, clock stale.Clock, log *zap.Logger) *API {
	if clock == nil {
		clock = stale.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &API{cfg: cfg, cache: c, svc: svc, clock: clock, log: log}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSnapshot writes a served payload and reports how it was obtained in
// X-Cache.
func writeSnapshot(w http.ResponseWriter, v any, src stale.Source) {
	w.Header().Set("X-Cache", string(src))
	writeJSON(w, http.StatusOK, v)
}

func timeboxed(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d)
}

func parseIntParam(v string, def int, min int, max int) int {
	if v == "" {
		return def
	}
	var out int
	_, err := fmt.Sscanf(v, "%d", &out)
	if err != nil {
		return def
	}
	if out < min {
		return min
	}
	if out > max {
		return max
	}
	return out
}

func (a *API) nowISO() string {
	return a.clock.Now().UTC().Format(time.RFC3339)
}

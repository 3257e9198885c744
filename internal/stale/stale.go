// Package stale holds the last known good payload of an endpoint and decides
// whether it can be served without touching the upstream.
//
// A Slot is created once per endpoint at process start, optionally seeded with
// mock data, and overwritten on every successful refresh. Payloads stored in a
// slot are treated as immutable by every caller.
package stale

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"market-overlay/backend-go/internal/cache"
)

// Clock abstracts time.Now so freshness can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Source tells how a served payload was obtained.
type Source string

const (
	SourceHit   Source = "hit"
	SourceFresh Source = "fresh"
	SourceStale Source = "stale"
	SourceMock  Source = "mock"
)

// Entry is the slot content. A zero FetchedAt marks a seed that was never
// fetched from an upstream.
type Entry[T any] struct {
	Payload   T         `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
}

type Options struct {
	Clock Clock
	// Mirror receives a JSON copy of every Put so a restarted process can
	// Restore the last good payload. Nil disables mirroring.
	Mirror    cache.Cache
	MirrorTTL time.Duration
	// SingleFlight collapses concurrent refreshes of the slot into one pass.
	SingleFlight bool
	// RefreshTimeout bounds a shared refresh, which runs detached from the
	// request that started it. Zero leaves it unbounded.
	RefreshTimeout time.Duration
	Logger         *zap.Logger
}

// RefreshFunc builds a new payload from the previous one. ok reports whether
// the result is good enough to replace the slot.
type RefreshFunc[T any] func(ctx context.Context, prev T) (next T, ok bool)

type Slot[T any] struct {
	name string
	opts Options

	mu    sync.RWMutex
	entry Entry[T]
	has   bool

	sf singleflight.Group
}

func New[T any](name string, opts Options) *Slot[T] {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Slot[T]{name: name, opts: opts}
}

func (s *Slot[T]) Name() string { return s.name }

// Seed installs v as the initial content if the slot is still empty.
func (s *Slot[T]) Seed(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has {
		return
	}
	s.entry = Entry[T]{Payload: v}
	s.has = true
}

func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Payload, s.has
}

func (s *Slot[T]) Entry() (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry, s.has
}

// Put stores v as the last known good payload, stamped with the clock.
func (s *Slot[T]) Put(ctx context.Context, v T) {
	e := Entry[T]{Payload: v, FetchedAt: s.opts.Clock.Now()}
	s.mu.Lock()
	s.entry = e
	s.has = true
	s.mu.Unlock()

	if s.opts.Mirror == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		s.opts.Logger.Warn("stale mirror marshal failed", zap.String("slot", s.name), zap.Error(err))
		return
	}
	if err := s.opts.Mirror.Set(ctx, s.mirrorKey(), b, s.opts.MirrorTTL); err != nil {
		s.opts.Logger.Warn("stale mirror write failed", zap.String("slot", s.name), zap.Error(err))
	}
}

// IsFresh reports whether the slot was fetched less than ttl ago. Seeds are
// never fresh.
func (s *Slot[T]) IsFresh(ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has || s.entry.FetchedAt.IsZero() {
		return false
	}
	return s.opts.Clock.Now().Sub(s.entry.FetchedAt) < ttl
}

// Age returns the time since the last successful Put. ok is false for empty
// or seeded slots.
func (s *Slot[T]) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.has || s.entry.FetchedAt.IsZero() {
		return 0, false
	}
	return s.opts.Clock.Now().Sub(s.entry.FetchedAt), true
}

// Restore loads the mirrored entry, replacing an empty or seeded slot. It
// returns true when an entry was loaded.
func (s *Slot[T]) Restore(ctx context.Context) bool {
	if s.opts.Mirror == nil {
		return false
	}
	b, ok := s.opts.Mirror.Get(ctx, s.mirrorKey())
	if !ok {
		return false
	}
	var e Entry[T]
	if err := json.Unmarshal(b, &e); err != nil || e.FetchedAt.IsZero() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has && !s.entry.FetchedAt.IsZero() {
		return false
	}
	s.entry = e
	s.has = true
	s.opts.Logger.Info("stale slot restored", zap.String("slot", s.name), zap.Time("fetched_at", e.FetchedAt))
	return true
}

// Refresh runs fn against the current payload. A good result is stored and
// reported as fresh; otherwise fn's fallback result is returned as stale.
func (s *Slot[T]) Refresh(ctx context.Context, fn RefreshFunc[T]) (T, Source) {
	type result struct {
		v  T
		ok bool
	}
	run := func(ctx context.Context) result {
		prev, _ := s.Get()
		next, ok := fn(ctx, prev)
		if ok {
			s.Put(ctx, next)
		}
		return result{v: next, ok: ok}
	}

	var r result
	if s.opts.SingleFlight {
		v, _, shared := s.sf.Do(s.name, func() (any, error) {
			// Joined callers must not fail because the first one went away.
			fctx := context.WithoutCancel(ctx)
			if s.opts.RefreshTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(fctx, s.opts.RefreshTimeout)
				defer cancel()
			}
			return run(fctx), nil
		})
		r = v.(result)
		if shared {
			s.opts.Logger.Debug("refresh shared", zap.String("slot", s.name))
		}
	} else {
		r = run(ctx)
	}
	if r.ok {
		return r.v, SourceFresh
	}
	return r.v, SourceStale
}

// Serve is the full short-circuit policy: a fresh slot is returned untouched,
// an offline endpoint serves the slot or its seed, anything else refreshes.
func (s *Slot[T]) Serve(ctx context.Context, ttl time.Duration, online bool, fn RefreshFunc[T]) (T, Source) {
	if s.IsFresh(ttl) {
		v, _ := s.Get()
		return v, SourceHit
	}
	if !online {
		v, _ := s.Get()
		return v, SourceMock
	}
	return s.Refresh(ctx, fn)
}

func (s *Slot[T]) mirrorKey() string {
	return "stale:v1:" + s.name
}

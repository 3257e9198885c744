package services

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/stale"
)

const (
	calendarStatusOK          = "ok"
	calendarStatusNone        = "No upcoming events"
	calendarStatusUnavailable = "Macro calendar unavailable"
	calendarStatusForbidden   = "Macro calendar unavailable (403)"
	calendarTitleMax          = 60
)

// EventSource is what the calendar endpoint needs from a provider.
type EventSource interface {
	Online() bool
	Events(ctx context.Context) ([]Event, error)
}

type CalendarService struct {
	cfg    config.Config
	events EventSource
	slot   *stale.Slot[models.Calendar]
	clock  stale.Clock
	log    *zap.Logger
}

func NewCalendarService(cfg config.Config, events EventSource, slot *stale.Slot[models.Calendar], clock stale.Clock, log *zap.Logger) *CalendarService {
	slot.Seed(MockCalendar(clock.Now()))
	return &CalendarService{cfg: cfg, events: events, slot: slot, clock: clock, log: log}
}

func (s *CalendarService) Snapshot(ctx context.Context) (models.Calendar, stale.Source) {
	cal, src := s.slot.Serve(ctx, s.cfg.CacheTTLCalendar, s.events.Online(), s.refresh)
	if src == stale.SourceMock && !s.upcoming(cal) {
		cal = MockCalendar(s.clock.Now())
	}
	return cal, src
}

func (s *CalendarService) refresh(ctx context.Context, prev models.Calendar) (models.Calendar, bool) {
	now := s.clock.Now()
	events, err := s.events.Events(ctx)
	if err != nil {
		s.log.Warn("calendar unavailable", zap.Stringer("kind", KindOf(err)), zap.Error(err))
		// Only a fetched event is worth keeping; the mock seed is not.
		if e, ok := s.slot.Entry(); ok && !e.FetchedAt.IsZero() && s.upcoming(prev) {
			return prev, false
		}
		status := calendarStatusUnavailable
		if StatusOf(err) == http.StatusForbidden {
			status = calendarStatusForbidden
		}
		return models.Calendar{Status: status, Meta: models.Meta{AsOf: now.UTC(), Ok: false}}, false
	}

	out := models.Calendar{Status: calendarStatusNone, Meta: models.Meta{AsOf: now.UTC(), Ok: true}}
	if ev, ok := SelectEvent(events, now, s.cfg.CalendarPolicy); ok {
		out.Status = calendarStatusOK
		out.Next = &models.CalendarEvent{
			Title:      truncate(ev.Title, calendarTitleMax),
			ISO:        ev.At.UTC().Format(time.RFC3339),
			TimeET:     FormatET(ev.At),
			Importance: clampLevel(ev.Importance),
		}
	}
	return out, true
}

// upcoming reports whether cal still points at a future event.
func (s *CalendarService) upcoming(cal models.Calendar) bool {
	if cal.Next == nil {
		return false
	}
	at, err := time.Parse(time.RFC3339, cal.Next.ISO)
	return err == nil && at.After(s.clock.Now())
}

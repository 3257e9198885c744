package services

import (
	"context"

	"go.uber.org/zap"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
	"market-overlay/backend-go/internal/stale"
)

const (
	digestFeedItems = 12
	newsFeedItems   = 10
)

// FeedSource is what the digest and news endpoints need from the RSS feed.
type FeedSource interface {
	Items(ctx context.Context, limit int) ([]models.FeedItem, error)
}

// Summarizer condenses feed items into a digest.
type Summarizer interface {
	Online() bool
	Summarize(ctx context.Context, items []models.FeedItem) (models.Digest, error)
}

type DigestService struct {
	cfg        config.Config
	feed       FeedSource
	summarizer Summarizer
	slot       *stale.Slot[models.Digest]
	clock      stale.Clock
	log        *zap.Logger
}

func NewDigestService(cfg config.Config, feed FeedSource, summarizer Summarizer, slot *stale.Slot[models.Digest], clock stale.Clock, log *zap.Logger) *DigestService {
	slot.Seed(MockDigest(clock.Now()))
	return &DigestService{cfg: cfg, feed: feed, summarizer: summarizer, slot: slot, clock: clock, log: log}
}

// Snapshot returns the digest. The feed needs no credential, so the slot is
// refreshed whenever it is stale; the summarizer is only called with a key.
// Without OPENAI_API_KEY the feed is still fetched, unlike the board and
// calendar which make no upstream call without their credential.
func (s *DigestService) Snapshot(ctx context.Context) (models.Digest, stale.Source) {
	return s.slot.Serve(ctx, s.cfg.CacheTTLDigest, true, s.refresh)
}

// refresh stores any digest built from a readable feed, including the raw
// fallback, so a failing summarizer is not retried on every request.
func (s *DigestService) refresh(ctx context.Context, prev models.Digest) (models.Digest, bool) {
	items, err := s.feed.Items(ctx, digestFeedItems)
	if err != nil {
		s.log.Warn("news feed unavailable", zap.Stringer("kind", KindOf(err)), zap.Error(err))
		return prev, false
	}

	now := s.clock.Now().UTC()
	var out models.Digest
	if !s.summarizer.Online() {
		out = fallbackDigest(digestOffline, items)
	} else if d, err := s.summarizer.Summarize(ctx, items); err != nil {
		s.log.Warn("summarizer failed", zap.Stringer("kind", KindOf(err)), zap.Error(err))
		out = fallbackDigest(fallbackNow(err), items)
	} else {
		out = d
		out.Meta.Ok = true
	}
	out.UpdatedAt = now
	out.Meta.AsOf = now
	return out, true
}

func fallbackNow(err error) string {
	switch KindOf(err) {
	case SchemaViolation, UnparsableBody:
		return digestParseError
	default:
		return digestError
	}
}

func fallbackDigest(now string, items []models.FeedItem) models.Digest {
	return models.Digest{Now: now, News: rawDigestRows(items)}
}

// NewsService serves the raw feed items.
type NewsService struct {
	cfg   config.Config
	feed  FeedSource
	slot  *stale.Slot[models.News]
	clock stale.Clock
	log   *zap.Logger
}

func NewNewsService(cfg config.Config, feed FeedSource, slot *stale.Slot[models.News], clock stale.Clock, log *zap.Logger) *NewsService {
	slot.Seed(models.News{Items: []models.FeedItem{}, UpdatedAt: clock.Now().UTC()})
	return &NewsService{cfg: cfg, feed: feed, slot: slot, clock: clock, log: log}
}

func (s *NewsService) Snapshot(ctx context.Context) (models.News, stale.Source) {
	return s.slot.Serve(ctx, s.cfg.CacheTTLNews, true, func(ctx context.Context, prev models.News) (models.News, bool) {
		items, err := s.feed.Items(ctx, newsFeedItems)
		if err != nil {
			s.log.Warn("news feed unavailable", zap.Stringer("kind", KindOf(err)), zap.Error(err))
			return prev, false
		}
		return models.News{Items: items, UpdatedAt: s.clock.Now().UTC()}, true
	})
}

package services

import (
	"context"
	"errors"
	"html"
	"regexp"
	"strings"
	"time"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
)

// FeedClient reads the RSS news feed.
type FeedClient struct {
	hc  HTTPDoer
	url string
}

func NewFeedClient(cfg config.Config, hc HTTPDoer) *FeedClient {
	return &FeedClient{hc: hc, url: cfg.NewsFeedURL}
}

// Items fetches the feed and returns at most limit items. A feed without any
// usable item is reported as UnparsableBody.
func (c *FeedClient) Items(ctx context.Context, limit int) ([]models.FeedItem, error) {
	const op = "feed"
	body, err := doGet(ctx, c.hc, op, c.url)
	if err != nil {
		return nil, err
	}
	items := ParseFeed(string(body), limit)
	if len(items) == 0 {
		return nil, failure(op, UnparsableBody, errors.New("no items"))
	}
	return items, nil
}

var (
	reItemStart = regexp.MustCompile(`<item(?:\s[^>]*)?>`)
	reTitle     = regexp.MustCompile(`(?s)<title(?:\s[^>]*)?>(.*?)</title>`)
	reLink      = regexp.MustCompile(`(?s)<link(?:\s[^>]*)?>(.*?)</link>`)
	rePubDate   = regexp.MustCompile(`(?s)<pubDate>(.*?)</pubDate>`)
	reCDATA     = regexp.MustCompile(`(?s)^<!\[CDATA\[(.*?)\]\]>$`)
)

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
}

// ParseFeed extracts flat <item> blocks with title, link and pubDate. Items
// missing a title or link are skipped; at most limit items are returned.
func ParseFeed(doc string, limit int) []models.FeedItem {
	starts := reItemStart.FindAllStringIndex(doc, -1)
	items := make([]models.FeedItem, 0, min(len(starts), limit))
	for i, loc := range starts {
		if len(items) >= limit {
			break
		}
		end := len(doc)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := doc[loc[1]:end]
		if j := strings.Index(block, "</item>"); j >= 0 {
			block = block[:j]
		}

		title := tagText(reTitle, block)
		link := tagText(reLink, block)
		if title == "" || link == "" {
			continue
		}
		pub := tagText(rePubDate, block)
		item := models.FeedItem{Title: title, Link: link, PubDate: pub}
		if at, ok := parsePubDate(pub); ok {
			item.TimeET = FormatET(at)
		}
		items = append(items, item)
	}
	return items
}

func tagText(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	s := strings.TrimSpace(m[1])
	if c := reCDATA.FindStringSubmatch(s); c != nil {
		return strings.TrimSpace(c[1])
	}
	return strings.TrimSpace(html.UnescapeString(s))
}

// usZoneOffsets covers the abbreviations US feeds print. time.Parse gives an
// unknown abbreviation a zero offset, so these are pinned explicitly.
var usZoneOffsets = map[string]int{
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
}

func parsePubDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if name, _ := t.Zone(); usZoneOffsets[name] != 0 {
			loc := time.FixedZone(name, usZoneOffsets[name])
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
		}
		return t, true
	}
	return time.Time{}, false
}

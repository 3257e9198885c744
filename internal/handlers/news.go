package handlers

import (
	"net/http"
	"strings"

	"market-overlay/backend-go/internal/models"
)

const maxNewsItems = 10

// News serves the raw feed. Optional q narrows the items by title and limit
// caps their number; neither touches the cached payload.
func (a *API) News(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntParam(q.Get("limit"), maxNewsItems, 1, maxNewsItems)
	searchText := strings.TrimSpace(q.Get("q"))

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()

	news, src := a.svc.News.Snapshot(ctx)
	if searchText == "" && limit >= len(news.Items) {
		writeSnapshot(w, news, src)
		return
	}

	items := applyNewsSearch(news.Items, searchText)
	if len(items) > limit {
		items = items[:limit]
	}
	writeSnapshot(w, models.News{Items: items, UpdatedAt: news.UpdatedAt}, src)
}

func applyNewsSearch(items []models.FeedItem, query string) []models.FeedItem {
	trimmed := strings.TrimSpace(strings.ToLower(query))
	if trimmed == "" {
		return items
	}
	tokens := strings.Fields(trimmed)
	out := make([]models.FeedItem, 0, len(items))
	for _, it := range items {
		text := strings.ToLower(it.Title)
		if text == "" {
			continue
		}
		if strings.Contains(text, trimmed) {
			out = append(out, it)
			continue
		}
		matchAll := true
		for _, tok := range tokens {
			if len(tok) < 2 {
				continue
			}
			if !strings.Contains(text, tok) {
				matchAll = false
				break
			}
		}
		if matchAll {
			out = append(out, it)
		}
	}
	return out
}

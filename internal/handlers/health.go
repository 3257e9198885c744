package handlers

import (
	"net/http"

	"market-overlay/backend-go/internal/models"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	backend := "none"
	if a.cache != nil {
		backend = a.cache.Backend()
	}

	ages := make(map[string]float64, len(a.svc.Slots))
	for _, s := range a.svc.Slots {
		if age, ok := s.Age(); ok {
			ages[s.Name()] = age.Seconds()
		}
	}

	resp := models.HealthResponse{
		Ok:      true,
		TsISO:   a.nowISO(),
		Service: "market-overlay",
		Version: a.cfg.ServiceVersion,
		Cache:   backend,
		Env: map[string]bool{
			"FINNHUB_API_KEY": a.cfg.QuotesOnline(),
			"OPENAI_API_KEY":  a.cfg.SummaryOnline(),
			"REDIS_URL":       a.cfg.RedisURL != "",
			"NEWS_FEED_URL":   a.cfg.NewsFeedURL != "",
			"BOARDS_FILE":     a.cfg.BoardsFile != "",
		},
		SlotAges: ages,
	}
	writeJSON(w, http.StatusOK, resp)
}

package services

import (
	"context"
	"errors"
	"net/url"

	"market-overlay/backend-go/internal/config"
)

// Quote is a successful provider reading.
type Quote struct {
	Price         float64
	PercentChange float64
}

type finnhubQuote struct {
	C  *float64 `json:"c"`
	DP *float64 `json:"dp"`
}

// QuotesClient fetches single-symbol quotes. Every call is one attempt; any
// failure comes back as a *FetchError.
type QuotesClient struct {
	hc      HTTPDoer
	baseURL string
	token   string
}

func NewQuotesClient(cfg config.Config, hc HTTPDoer) *QuotesClient {
	return &QuotesClient{
		hc:      hc,
		baseURL: cfg.FinnhubBaseURL,
		token:   cfg.FinnhubAPIKey,
	}
}

func (c *QuotesClient) Online() bool { return c.token != "" }

func (c *QuotesClient) Quote(ctx context.Context, symbol string) (Quote, error) {
	const op = "quote"
	if c.token == "" {
		return Quote{}, failure(op, MissingCredential, nil)
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", c.token)

	var raw finnhubQuote
	if err := getJSON(ctx, c.hc, op, c.baseURL+"/quote?"+q.Encode(), &raw); err != nil {
		return Quote{}, err
	}
	if raw.C == nil || *raw.C <= 0 {
		return Quote{}, failure(op, InvalidValue, errors.New("non-positive price for "+symbol))
	}
	out := Quote{Price: *raw.C}
	if raw.DP != nil {
		out.PercentChange = *raw.DP
	}
	return out, nil
}

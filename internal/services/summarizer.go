package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/models"
)

const (
	digestNowMax   = 78
	digestTitleMax = 62
	digestRows     = 5
)

const summarizerPrompt = `You generate ultra-short on-screen market overlays.

Output must be ENGLISH. Keep it broadcast-ready.

Rules:
- now: exactly ONE sentence, <= 78 characters. Must say WHY markets move (one driver).
- breaking: optional. headline <= 62 chars. One clause only.
- news: exactly %d items.
  - title <= 62 chars (headline-style, readable, no quotes/parentheses).
  - level 1-5 market impact (5 = major).
  - sentiment: bullish, bearish or neutral for US equities.
Use provided timeET. If blank, keep "".
Return strict JSON only.`

// digestDraft is the summarizer output before clamping.
type digestDraft struct {
	Now      string         `json:"now" validate:"required"`
	Breaking *breakingDraft `json:"breaking" validate:"omitempty"`
	News     []newsDraft    `json:"news" validate:"required,min=1,max=5,dive"`
}

type breakingDraft struct {
	TimeET   string `json:"timeET"`
	Headline string `json:"headline" validate:"required"`
	Level    int    `json:"level" validate:"min=1,max=5"`
}

type newsDraft struct {
	TimeET    string  `json:"timeET"`
	Title     string  `json:"title" validate:"required"`
	Level     int     `json:"level" validate:"min=1,max=5"`
	Sentiment string  `json:"sentiment" validate:"oneof=bullish bearish neutral"`
	Link      *string `json:"link"`
}

// SummarizerClient turns raw feed titles into a digest through the OpenAI
// Responses API with a strict JSON schema.
type SummarizerClient struct {
	hc       HTTPDoer
	baseURL  string
	apiKey   string
	model    string
	validate *validator.Validate
}

func NewSummarizerClient(cfg config.Config, hc HTTPDoer) *SummarizerClient {
	return &SummarizerClient{
		hc:       hc,
		baseURL:  cfg.OpenAIBaseURL,
		apiKey:   cfg.OpenAIAPIKey,
		model:    cfg.OpenAIModel,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *SummarizerClient) Online() bool { return c.apiKey != "" }

// Summarize returns a clamped digest built from items. Output that does not
// decode or does not satisfy the schema is a SchemaViolation.
func (c *SummarizerClient) Summarize(ctx context.Context, items []models.FeedItem) (models.Digest, error) {
	const op = "summarizer"
	if c.apiKey == "" {
		return models.Digest{}, failure(op, MissingCredential, nil)
	}
	want := min(digestRows, len(items))
	if want == 0 {
		return models.Digest{}, failure(op, InvalidValue, fmt.Errorf("no items to summarize"))
	}

	payload, err := c.requestBody(items, want)
	if err != nil {
		return models.Digest{}, failure(op, InvalidValue, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return models.Digest{}, failure(op, NetworkFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return models.Digest{}, failure(op, NetworkFailure, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return models.Digest{}, &FetchError{Op: op, Kind: NonSuccessStatus, Status: res.StatusCode}
	}

	var envelope responsesEnvelope
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&envelope); err != nil {
		return models.Digest{}, failure(op, UnparsableBody, err)
	}

	var draft digestDraft
	if err := json.Unmarshal([]byte(envelope.text()), &draft); err != nil {
		return models.Digest{}, failure(op, SchemaViolation, err)
	}
	if err := c.validate.Struct(draft); err != nil {
		return models.Digest{}, failure(op, SchemaViolation, err)
	}
	if len(draft.News) != want {
		return models.Digest{}, failure(op, SchemaViolation, fmt.Errorf("news: got %d rows, want %d", len(draft.News), want))
	}
	return draft.digest(), nil
}

func (c *SummarizerClient) requestBody(items []models.FeedItem, want int) ([]byte, error) {
	type inputItem struct {
		Title  string `json:"title"`
		Link   string `json:"link"`
		TimeET string `json:"timeET"`
	}
	in := make([]inputItem, 0, len(items))
	for _, it := range items {
		in = append(in, inputItem{Title: it.Title, Link: it.Link, TimeET: it.TimeET})
	}
	user, err := json.Marshal(map[string]any{"items": in})
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"model": c.model,
		"input": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(summarizerPrompt, want)},
			{"role": "user", "content": string(user)},
		},
		"text": map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   "digest_pack",
				"strict": true,
				"schema": digestSchema(want),
			},
		},
		"store": false,
	})
}

func digestSchema(rows int) map[string]any {
	level := map[string]any{"type": "integer", "minimum": 1, "maximum": 5}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"now", "breaking", "news"},
		"properties": map[string]any{
			"now": map[string]any{"type": "string"},
			"breaking": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "null"},
					map[string]any{
						"type":                 "object",
						"additionalProperties": false,
						"required":             []string{"timeET", "headline", "level"},
						"properties": map[string]any{
							"timeET":   map[string]any{"type": "string"},
							"headline": map[string]any{"type": "string"},
							"level":    level,
						},
					},
				},
			},
			"news": map[string]any{
				"type":     "array",
				"minItems": rows,
				"maxItems": rows,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"timeET", "title", "level", "sentiment", "link"},
					"properties": map[string]any{
						"timeET":    map[string]any{"type": "string"},
						"title":     map[string]any{"type": "string"},
						"level":     level,
						"sentiment": map[string]any{"type": "string", "enum": []string{"bullish", "bearish", "neutral"}},
						"link":      map[string]any{"anyOf": []any{map[string]any{"type": "string"}, map[string]any{"type": "null"}}},
					},
				},
			},
		},
	}
}

type responsesEnvelope struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text joins every output_text part of the response.
func (e responsesEnvelope) text() string {
	var parts []string
	for _, o := range e.Output {
		for _, c := range o.Content {
			if c.Type == "output_text" {
				parts = append(parts, c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (d digestDraft) digest() models.Digest {
	out := models.Digest{
		Now:  clamp(d.Now, digestNowMax),
		News: make([]models.DigestItem, 0, len(d.News)),
	}
	if d.Breaking != nil {
		out.Breaking = &models.Breaking{
			TimeET:   d.Breaking.TimeET,
			Headline: clamp(d.Breaking.Headline, digestTitleMax),
			Level:    clampLevel(d.Breaking.Level),
		}
	}
	for _, n := range d.News {
		out.News = append(out.News, models.DigestItem{
			TimeET:    n.TimeET,
			Title:     clamp(n.Title, digestTitleMax),
			Level:     clampLevel(n.Level),
			Sentiment: n.Sentiment,
			Link:      n.Link,
		})
	}
	return out
}

// rawDigestRows is the summarizer-free rendition of the first items.
func rawDigestRows(items []models.FeedItem) []models.DigestItem {
	n := min(digestRows, len(items))
	out := make([]models.DigestItem, 0, n)
	for _, it := range items[:n] {
		link := it.Link
		out = append(out, models.DigestItem{
			TimeET:    it.TimeET,
			Title:     clamp(it.Title, digestTitleMax),
			Level:     2,
			Sentiment: "neutral",
			Link:      &link,
		})
	}
	return out
}

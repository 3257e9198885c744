package services

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"
)

// HTTPDoer is the part of *http.Client the upstream clients use.
//
//go:generate mockgen -package=services -destination=mock_http_doer_test.go -source=httpclient.go HTTPDoer
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const userAgent = "Mozilla/5.0 (MarketOverlay)"

// NewHTTPClient returns the shared outbound client.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// newNoStoreRequest builds a GET that asks intermediaries not to serve a
// cached copy.
func newNoStoreRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// doGet performs one attempt and returns the body of a 2xx response.
func doGet(ctx context.Context, hc HTTPDoer, op string, url string) ([]byte, error) {
	req, err := newNoStoreRequest(ctx, url)
	if err != nil {
		return nil, failure(op, NetworkFailure, err)
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, failure(op, NetworkFailure, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, &FetchError{Op: op, Kind: NonSuccessStatus, Status: res.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, failure(op, NetworkFailure, err)
	}
	return body, nil
}

// getJSON is doGet followed by a JSON decode into out.
func getJSON(ctx context.Context, hc HTTPDoer, op string, url string, out any) error {
	body, err := doGet(ctx, hc, op, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return failure(op, UnparsableBody, err)
	}
	return nil
}

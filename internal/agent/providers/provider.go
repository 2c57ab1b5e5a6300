package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Fixed trust scores per source kind. Live data ranks above everything else
// so stale indexed documents cannot shadow a fresh quote or forecast.
const (
	ScoreLive        = 0.95
	ScoreScrape      = 0.9
	ScoreArxiv       = 0.85
	ScoreWikipedia   = 0.8
	ScoreWebFallback = 0.5
)

// basic safety limits to avoid pathological responses
const (
	maxBodyBytes     = 2 << 20 // 2MB per response
	maxScrapedChars  = 10000
	defaultUserAgent = "IntelliStream/1.0 (RAG Intelligence Platform)"
)

var httpClient = &http.Client{Timeout: 20 * time.Second}

// getJSON performs a GET with query params and decodes the JSON body into out.
func getJSON(ctx context.Context, base string, params url.Values, headers map[string]string, out any) error {
	u := base
	if len(params) > 0 {
		u = base + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, base)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// postJSON performs a POST with a JSON payload and decodes the JSON response.
func postJSON(ctx context.Context, u string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

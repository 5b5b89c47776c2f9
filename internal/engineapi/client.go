// Package engineapi is the HTTP client for the order-book engine's REST API.
// Reads are fail-soft: any transport error, timeout, non-2xx status, or
// undecodable body yields "no data" for that resource instead of an error, so
// the dashboard renders a partial view rather than crashing while the engine
// is unreachable. The next poll cycle retries naturally.
package engineapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	httpc   *http.Client
	log     *slog.Logger
}

// NewClient builds a client for the engine API rooted at baseURL
// (e.g. "http://localhost:8080/api"). timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     logger,
	}
}

func (c *Client) url(p string) string {
	return c.baseURL + p
}

// getJSON fetches path and decodes the body into v. Callers translate the
// error into their fail-soft contract.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Quote fetches the L1 snapshot. ok is false when the engine is unreachable
// or answered with anything other than a decodable 2xx.
func (c *Client) Quote(ctx context.Context) (Quote, bool) {
	var q Quote
	if err := c.getJSON(ctx, "/quote", &q); err != nil {
		c.log.Debug("quote fetch failed", slog.String("err", err.Error()))
		return Quote{}, false
	}
	return q, true
}

// Book fetches the L2 depth snapshot.
func (c *Client) Book(ctx context.Context) (Book, bool) {
	var b Book
	if err := c.getJSON(ctx, "/book", &b); err != nil {
		c.log.Debug("book fetch failed", slog.String("err", err.Error()))
		return Book{}, false
	}
	return b, true
}

// Stats fetches engine statistics.
func (c *Client) Stats(ctx context.Context) (Stats, bool) {
	var s Stats
	if err := c.getJSON(ctx, "/stats", &s); err != nil {
		c.log.Debug("stats fetch failed", slog.String("err", err.Error()))
		return Stats{}, false
	}
	return s, true
}

// Trades fetches the recent-trade tail. A healthy engine with no fills
// returns (empty, true); (nil, false) means the resource was unavailable.
func (c *Client) Trades(ctx context.Context) ([]Trade, bool) {
	var ts []Trade
	if err := c.getJSON(ctx, "/trades", &ts); err != nil {
		c.log.Debug("trades fetch failed", slog.String("err", err.Error()))
		return nil, false
	}
	if ts == nil {
		ts = []Trade{}
	}
	return ts, true
}

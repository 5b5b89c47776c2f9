package engineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"clobview/internal/fixedpoint"
)

// SubmitOrder posts one new order to the engine. The decimal price is
// converted to fixed-point cents on the way out; the quantity and side pass
// through unchanged. Exactly one request is issued per call — a failed
// submission is never retried here, because the engine may already have
// acted on it.
func (c *Client) SubmitOrder(ctx context.Context, side Side, price decimal.Decimal, quantity int64) (OrderResult, error) {
	if side != Buy && side != Sell {
		return OrderResult{}, fmt.Errorf("side must be %s or %s", Buy, Sell)
	}
	if !price.IsPositive() {
		return OrderResult{}, errors.New("price must be positive")
	}
	if quantity < 1 {
		return OrderResult{}, errors.New("quantity must be at least 1")
	}

	body, err := json.Marshal(orderRequest{
		Side:     side,
		Price:    fixedpoint.ToWire(price),
		Quantity: quantity,
	})
	if err != nil {
		return OrderResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/orders"), bytes.NewReader(body))
	if err != nil {
		return OrderResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return OrderResult{}, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OrderResult{}, fmt.Errorf("submit order rejected (status %d): %s", resp.StatusCode, readBody(resp.Body))
	}

	var res OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return OrderResult{}, fmt.Errorf("decode order result: %w", err)
	}
	c.log.Info("order submitted",
		slog.String("side", string(side)),
		slog.Int64("price", fixedpoint.ToWire(price)),
		slog.Int64("quantity", quantity),
		slog.String("status", res.Status),
		slog.Int("trades", res.TradesCount),
	)
	return res, nil
}

// CancelOrder asks the engine to remove a resting order.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url(fmt.Sprintf("/orders/%d", orderID)), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cancel order %d (status %d): %s", orderID, resp.StatusCode, readBody(resp.Body))
	}
	return nil
}

// readBody returns a short diagnostic string from an error response.
func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

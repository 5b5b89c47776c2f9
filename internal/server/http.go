// Package server exposes the dashboard: static SPA assets, a JSON API the
// SPA drives, and a websocket that pushes each rendered snapshot.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clobview/internal/config"
	"clobview/internal/engineapi"
	"clobview/internal/refresh"
	"clobview/internal/state"
	"clobview/internal/view"
)

type HTTPServer struct {
	cfg    config.Config
	st     *state.State
	engine *engineapi.Client
	ref    *refresh.Refresher
	hub    *hub
	log    *slog.Logger
	mux    *http.ServeMux
}

func NewHTTPServer(cfg config.Config, st *state.State, engine *engineapi.Client, ref *refresh.Refresher, logger *slog.Logger) *HTTPServer {
	s := &HTTPServer{
		cfg:    cfg,
		st:     st,
		engine: engine,
		ref:    ref,
		hub:    newHub(logger),
		log:    logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	go s.hub.run()
	return s
}

func (s *HTTPServer) Router() http.Handler { return s.mux }

// BroadcastSnapshot pushes a freshly rendered snapshot to every browser.
func (s *HTTPServer) BroadcastSnapshot(snap view.Snapshot) {
	s.hub.broadcast <- marshalWS("snapshot", snap)
}

func (s *HTTPServer) broadcastStatus() {
	on, iv := s.st.Auto()
	s.hub.broadcast <- marshalWS("status", map[string]any{
		"backendUp":       s.st.BackendUp(),
		"autoRefresh":     on,
		"intervalSeconds": int(iv.Seconds()),
	})
}

func (s *HTTPServer) routes() {
	// SPA
	s.mux.HandleFunc("/", s.serveAsset("./web/index.html", "text/html; charset=utf-8"))
	s.mux.HandleFunc("/app.js", s.serveAsset("./web/app.js", "text/javascript; charset=utf-8"))
	s.mux.HandleFunc("/styles.css", s.serveAsset("./web/styles.css", "text/css; charset=utf-8"))

	// WS
	s.mux.HandleFunc("/ws", s.hub.serveWS)

	// API
	s.mux.HandleFunc("/api/health", s.apiHealth)
	s.mux.HandleFunc("/api/config", s.apiConfig)
	s.mux.HandleFunc("/api/snapshot", s.apiSnapshot)
	s.mux.HandleFunc("/api/refresh", s.apiRefresh)
	s.mux.HandleFunc("/api/autorefresh", s.apiAutoRefresh)
	s.mux.HandleFunc("/api/orders", s.apiOrders)
	s.mux.HandleFunc("/api/orders/", s.apiCancelOrder)
}

func (s *HTTPServer) serveAsset(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	}
}

func (s *HTTPServer) apiHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"backendUp": s.st.BackendUp(),
	})
}

func (s *HTTPServer) apiConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"engineApiUrl":          s.cfg.EngineAPIURL,
		"autoRefreshMinSeconds": s.cfg.AutoRefreshMinSec,
		"autoRefreshMaxSeconds": s.cfg.AutoRefreshMaxSec,
		"autoRefreshDefSeconds": s.cfg.AutoRefreshDefaultSec,
		"tradesShown":           s.cfg.TradesShown,
		"levelsShown":           s.cfg.LevelsShown,
	})
}

func (s *HTTPServer) apiSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.st.Snapshot()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"available": false})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /api/refresh — one manual cycle.
func (s *HTTPServer) apiRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.ref.RefreshNow(r.Context())
	if errors.Is(err, refresh.ErrThrottled) {
		http.Error(w, "refreshing too fast", http.StatusTooManyRequests)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /api/autorefresh { "enabled": bool, "intervalSeconds": int }
func (s *HTTPServer) apiAutoRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Enabled         bool `json:"enabled"`
		IntervalSeconds int  `json:"intervalSeconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	// The loop must outlive this request, so it runs on the server's
	// background context, not r.Context().
	iv := s.ref.SetAuto(context.Background(), req.Enabled, time.Duration(req.IntervalSeconds)*time.Second)
	s.broadcastStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":         req.Enabled,
		"intervalSeconds": int(iv.Seconds()),
	})
}

// POST /api/orders { "side": "BUY"|"SELL", "price": "105.00", "quantity": 100 }
func (s *HTTPServer) apiOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Side     string          `json:"side"`
		Price    json.RawMessage `json:"price"`
		Quantity int64           `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return
	}
	res, err := s.engine.SubmitOrder(r.Context(), engineapi.Side(strings.ToUpper(req.Side)), price, req.Quantity)
	if err != nil {
		// Surface the reason verbatim; the book state is unknown, the
		// operator decides whether to resubmit.
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
}

// DELETE /api/orders/{id}
func (s *HTTPServer) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "DELETE required", http.StatusMethodNotAllowed)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	if err := s.engine.CancelOrder(r.Context(), id); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orderId": id})
}

// parsePrice accepts the price as a JSON string ("105.00") or number (105.0);
// the SPA sends a string to keep decimals exact.
func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Decimal{}, errors.New("price required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromFloat(f), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

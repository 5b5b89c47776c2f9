// Package view merges the four engine resources of one poll cycle into a
// single immutable snapshot for rendering. A snapshot is built fresh every
// cycle and replaces the previous one wholesale; nothing is diffed or merged
// across cycles.
package view

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clobview/internal/depth"
	"clobview/internal/engineapi"
	"clobview/internal/fixedpoint"
)

// Sources carries the raw results of one fetch cycle. Each ok flag is the
// fail-soft outcome of the corresponding read.
type Sources struct {
	Quote    engineapi.Quote
	QuoteOK  bool
	Book     engineapi.Book
	BookOK   bool
	Stats    engineapi.Stats
	StatsOK  bool
	Trades   []engineapi.Trade
	TradesOK bool
}

// Snapshot is the display-ready view of one cycle. Sections the engine did
// not answer for are nil and render as their own "no data" placeholder;
// Unavailable is set only when every section is missing.
type Snapshot struct {
	CycleID     string    `json:"cycleId"`
	FetchedAt   time.Time `json:"fetchedAt"`
	Unavailable bool      `json:"unavailable"`

	Quote    *QuoteView    `json:"quote,omitempty"`
	Bids     []LevelRow    `json:"bids,omitempty"`
	Asks     []LevelRow    `json:"asks,omitempty"`
	BidDepth []depth.Point `json:"bidDepth,omitempty"`
	AskDepth []depth.Point `json:"askDepth,omitempty"`
	Stats    *StatsView    `json:"stats,omitempty"`
	Trades   []TradeRow    `json:"trades,omitempty"`
}

// QuoteView is the L1 header. Absent sides stay empty strings; SpreadBps is
// "n/a" whenever the spread cannot be expressed against a positive best ask.
type QuoteView struct {
	BestBid   string `json:"bestBid"`
	BestAsk   string `json:"bestAsk"`
	Spread    string `json:"spread"`
	SpreadBps string `json:"spreadBps"`
}

type LevelRow struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Orders   int    `json:"orders"`
}

type StatsView struct {
	ActiveOrders    int    `json:"activeOrders"`
	PoolUtilization int    `json:"poolUtilization"`
	PoolCapacity    int    `json:"poolCapacity"`
	UtilizationPct  string `json:"utilizationPct"`
	BidLevels       int    `json:"bidLevels"`
	AskLevels       int    `json:"askLevels"`
	TotalTrades     int    `json:"totalTrades"`
}

type TradeRow struct {
	BuyOrderID  int64  `json:"buyOrderId"`
	SellOrderID int64  `json:"sellOrderId"`
	Price       string `json:"price"`
	Quantity    int64  `json:"quantity"`
}

// Limits bound how much of each section reaches the renderer. The depth
// curves are never truncated; only the tables are.
type Limits struct {
	TradesShown int // trade tail length (most recent kept, oldest first)
	LevelsShown int // table rows per book side
}

// Build merges one cycle's sources into a snapshot.
func Build(src Sources, limits Limits, now time.Time) Snapshot {
	snap := Snapshot{
		CycleID:   uuid.NewString(),
		FetchedAt: now,
	}

	if !src.QuoteOK && !src.BookOK && !src.StatsOK && !src.TradesOK {
		snap.Unavailable = true
		return snap
	}

	if src.QuoteOK {
		snap.Quote = buildQuote(src.Quote)
	}
	if src.BookOK {
		snap.Bids = buildRows(src.Book.Bids, limits.LevelsShown)
		snap.Asks = buildRows(src.Book.Asks, limits.LevelsShown)
		snap.BidDepth = depth.BuildCurve(src.Book.Bids)
		snap.AskDepth = depth.BuildCurve(src.Book.Asks)
	}
	if src.StatsOK {
		snap.Stats = buildStats(src.Stats)
	}
	if src.TradesOK {
		snap.Trades = buildTrades(src.Trades, limits.TradesShown)
	}
	return snap
}

func buildQuote(q engineapi.Quote) *QuoteView {
	v := &QuoteView{SpreadBps: "n/a"}
	if q.BestBid != nil {
		v.BestBid = fixedpoint.FormatUSD(*q.BestBid)
	}
	if q.BestAsk != nil {
		v.BestAsk = fixedpoint.FormatUSD(*q.BestAsk)
	}
	if q.Spread != nil {
		v.Spread = fixedpoint.FormatUSD(*q.Spread)
		// Basis points only make sense against a positive best ask.
		if q.BestAsk != nil && *q.BestAsk > 0 {
			bps := decimal.NewFromInt(*q.Spread).
				Div(decimal.NewFromInt(*q.BestAsk)).
				Mul(decimal.NewFromInt(10000))
			v.SpreadBps = bps.StringFixed(1) + " bps"
		}
	}
	return v
}

func buildRows(levels []engineapi.PriceLevel, shown int) []LevelRow {
	if shown > 0 && len(levels) > shown {
		levels = levels[:shown]
	}
	rows := make([]LevelRow, 0, len(levels))
	for _, lvl := range levels {
		rows = append(rows, LevelRow{
			Price:    fixedpoint.FormatUSD(lvl.Price),
			Quantity: lvl.Quantity,
			Orders:   lvl.Orders,
		})
	}
	return rows
}

func buildStats(s engineapi.Stats) *StatsView {
	v := &StatsView{
		ActiveOrders:    s.ActiveOrders,
		PoolUtilization: s.PoolUtilization,
		PoolCapacity:    s.PoolCapacity,
		UtilizationPct:  "n/a",
		BidLevels:       s.BidLevels,
		AskLevels:       s.AskLevels,
		TotalTrades:     s.TotalTrades,
	}
	if s.PoolCapacity > 0 {
		pct := decimal.NewFromInt(int64(s.PoolUtilization)).
			Div(decimal.NewFromInt(int64(s.PoolCapacity))).
			Mul(decimal.NewFromInt(100))
		v.UtilizationPct = pct.StringFixed(2) + "%"
	}
	return v
}

func buildTrades(trades []engineapi.Trade, shown int) []TradeRow {
	if shown > 0 && len(trades) > shown {
		trades = trades[len(trades)-shown:]
	}
	rows := make([]TradeRow, 0, len(trades))
	for _, tr := range trades {
		rows = append(rows, TradeRow{
			BuyOrderID:  tr.BuyOrderID,
			SellOrderID: tr.SellOrderID,
			Price:       fixedpoint.FormatUSD(tr.Price),
			Quantity:    tr.Quantity,
		})
	}
	return rows
}

// Package depth turns one side of a book snapshot into the cumulative curve
// the depth chart plots.
package depth

import (
	"github.com/shopspring/decimal"

	"clobview/internal/engineapi"
	"clobview/internal/fixedpoint"
)

// Point is one plotted step of a depth curve: the level's decimal price and
// the total resting quantity at or better than that price.
type Point struct {
	Price              decimal.Decimal `json:"price"`
	CumulativeQuantity int64           `json:"cumulativeQuantity"`
}

// BuildCurve walks the levels in the order the engine gave them (best price
// first: bids descending, asks ascending) and emits a running quantity sum.
// The engine already aggregates orders into distinct, sorted price levels, so
// this is a plain prefix sum; no reordering, no merging. An empty side yields
// an empty curve and the chart simply draws nothing for it.
func BuildCurve(levels []engineapi.PriceLevel) []Point {
	if len(levels) == 0 {
		return []Point{}
	}
	curve := make([]Point, 0, len(levels))
	var running int64
	for _, lvl := range levels {
		running += lvl.Quantity
		curve = append(curve, Point{
			Price:              fixedpoint.ToDisplay(lvl.Price),
			CumulativeQuantity: running,
		})
	}
	return curve
}

package depth

import (
	"testing"

	"github.com/shopspring/decimal"

	"clobview/internal/engineapi"
)

func TestBuildCurveBidExample(t *testing.T) {
	bids := []engineapi.PriceLevel{
		{Price: 10450, Quantity: 100, Orders: 1},
		{Price: 10400, Quantity: 50, Orders: 2},
	}
	curve := BuildCurve(bids)
	if len(curve) != 2 {
		t.Fatalf("len got %d want 2", len(curve))
	}
	if !curve[0].Price.Equal(decimal.RequireFromString("104.50")) || curve[0].CumulativeQuantity != 100 {
		t.Fatalf("first point got %+v want (104.50, 100)", curve[0])
	}
	if !curve[1].Price.Equal(decimal.RequireFromString("104.00")) || curve[1].CumulativeQuantity != 150 {
		t.Fatalf("second point got %+v want (104.00, 150)", curve[1])
	}
}

func TestBuildCurveMonotonic(t *testing.T) {
	asks := []engineapi.PriceLevel{
		{Price: 10500, Quantity: 80},
		{Price: 10510, Quantity: 0}, // empty level is legal, curve stays flat
		{Price: 10520, Quantity: 120},
		{Price: 10530, Quantity: 5},
	}
	curve := BuildCurve(asks)
	var total int64
	for _, lvl := range asks {
		total += lvl.Quantity
	}
	prev := int64(0)
	for i, p := range curve {
		if p.CumulativeQuantity < prev {
			t.Fatalf("curve decreases at %d: %d -> %d", i, prev, p.CumulativeQuantity)
		}
		prev = p.CumulativeQuantity
	}
	if curve[len(curve)-1].CumulativeQuantity != total {
		t.Fatalf("final cumulative got %d want %d", prev, total)
	}
}

func TestBuildCurveEmpty(t *testing.T) {
	curve := BuildCurve(nil)
	if len(curve) != 0 {
		t.Fatalf("want empty curve, got %v", curve)
	}
	curve = BuildCurve([]engineapi.PriceLevel{})
	if len(curve) != 0 {
		t.Fatalf("want empty curve, got %v", curve)
	}
}

func TestBuildCurvePreservesGivenOrder(t *testing.T) {
	// The engine's ordering is the contract; the aggregator must not sort.
	levels := []engineapi.PriceLevel{
		{Price: 10490, Quantity: 10},
		{Price: 10480, Quantity: 10},
		{Price: 10470, Quantity: 10},
	}
	curve := BuildCurve(levels)
	for i, lvl := range levels {
		want := fixedPrice(lvl.Price)
		if !curve[i].Price.Equal(want) {
			t.Fatalf("point %d price got %s want %s", i, curve[i].Price, want)
		}
	}
}

func fixedPrice(wire int64) decimal.Decimal {
	return decimal.NewFromInt(wire).Div(decimal.NewFromInt(100))
}

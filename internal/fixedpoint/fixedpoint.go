// Package fixedpoint converts between the engine's wire representation of
// prices (integer cents, scale 100) and the decimal dollar amounts shown to
// the operator. The pairing must match the engine exactly: a rounding-mode
// mismatch turns into silent off-by-one-cent submissions.
package fixedpoint

import (
	"github.com/shopspring/decimal"
)

// Scale is the fixed-point scale factor used on the wire (cents per dollar).
const Scale = 100

var scaleDec = decimal.NewFromInt(Scale)

// ToDisplay converts a wire price (cents) to its decimal dollar value.
func ToDisplay(wire int64) decimal.Decimal {
	return decimal.NewFromInt(wire).Div(scaleDec)
}

// ToWire converts a decimal dollar value to the wire representation,
// rounding to the nearest cent (half away from zero, same as the engine).
func ToWire(price decimal.Decimal) int64 {
	return price.Mul(scaleDec).Round(0).IntPart()
}

// FormatUSD renders a wire price as a dollar string, e.g. 10450 -> "$104.50".
func FormatUSD(wire int64) string {
	return "$" + ToDisplay(wire).StringFixed(2)
}

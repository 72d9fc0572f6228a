package model

import "github.com/shopspring/decimal"

// Progress bands used when presenting a line's progress
const (
	BandSuccess = "success"
	BandInfo    = "info"
	BandWarning = "warning"
	BandDanger  = "danger"
)

var hundred = decimal.NewFromInt(100)

// Progress returns actual/target*100, or 0 when target is zero.
// The ratio is not clamped: over-achievement exceeds 100 and negative actuals go below 0.
func Progress(actual, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return decimal.Zero
	}
	return actual.Div(target).Mul(hundred)
}

// Progress returns the line's progress ratio
func (l Line) Progress() decimal.Decimal {
	return Progress(l.ActualValue, l.TargetValue)
}

// ProgressBand maps a progress value onto a colour band
func ProgressBand(progress decimal.Decimal) string {
	switch {
	case progress.GreaterThanOrEqual(hundred):
		return BandSuccess
	case progress.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return BandInfo
	case progress.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return BandWarning
	default:
		return BandDanger
	}
}

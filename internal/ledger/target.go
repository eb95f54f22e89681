package ledger

import (
	"github.com/shopspring/decimal"
)

const (
	StatusAhead   = "Ahead of target"
	StatusOnTrack = "On track"
	StatusBehind  = "Behind target"
)

var (
	hundred      = decimal.NewFromInt(100)
	onTrackFloor = decimal.NewFromInt(60)
)

// Progress is today's profit measured against the daily target.
type Progress struct {
	Target  decimal.Decimal `json:"target"`
	Profit  decimal.Decimal `json:"profit"`
	Percent decimal.Decimal `json:"percent"`
	Status  string          `json:"status"`
}

// TargetProgress reports progress toward target. The second result is
// false when no positive target is set.
func TargetProgress(todayProfit, target decimal.Decimal) (Progress, bool) {
	if !target.IsPositive() {
		return Progress{}, false
	}
	pct := decimal.Min(hundred, todayProfit.Div(target).Mul(hundred))
	p := Progress{Target: target, Profit: todayProfit, Percent: pct.Round(2)}
	switch {
	case pct.GreaterThanOrEqual(hundred):
		p.Status = StatusAhead
	case pct.GreaterThanOrEqual(onTrackFloor):
		p.Status = StatusOnTrack
	default:
		p.Status = StatusBehind
	}
	return p, true
}

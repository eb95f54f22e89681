// Package settings holds per-device preferences: the daily sales target and
// the starting cash of each day. They are conveniences, not ledger data.
package settings

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cafeledger/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DeviceCookie = "cafeledger_device"

var ErrInvalidDevice = errors.New("invalid device id")

// Settings is the whole per-device configuration, loaded and saved as one unit.
type Settings struct {
	DailyTarget  decimal.Decimal            `json:"dailyTarget"`
	StartingCash map[string]decimal.Decimal `json:"startingCash"`
}

// Store persists Settings per device id.
type Store interface {
	Load(ctx context.Context, device string) (Settings, error)
	Save(ctx context.Context, device string, s Settings) error
}

// Default returns empty settings.
func Default() Settings {
	return Settings{DailyTarget: decimal.Zero, StartingCash: map[string]decimal.Decimal{}}
}

// StartingCashOn returns the starting cash recorded for day, or zero.
func (s Settings) StartingCashOn(day time.Time) decimal.Decimal {
	if v, ok := s.StartingCash[core.DateKey(day)]; ok {
		return v
	}
	return decimal.Zero
}

// SetStartingCash records amount for day. Negative amounts are rejected.
func (s *Settings) SetStartingCash(day time.Time, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.NewValidationError("startingCash", "Starting cash cannot be negative")
	}
	if s.StartingCash == nil {
		s.StartingCash = map[string]decimal.Decimal{}
	}
	s.StartingCash[core.DateKey(day)] = amount
	return nil
}

// SetDailyTarget records the daily target. Zero disables progress tracking.
func (s *Settings) SetDailyTarget(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return core.NewValidationError("dailyTarget", "Daily target cannot be negative")
	}
	s.DailyTarget = amount
	return nil
}

func (s Settings) normalized() Settings {
	if s.StartingCash == nil {
		s.StartingCash = map[string]decimal.Decimal{}
	}
	return s
}

// ValidDevice reports whether device is a well-formed device id.
func ValidDevice(device string) bool {
	_, err := uuid.Parse(device)
	return err == nil
}

// Device returns the device id of r, issuing a new cookie when missing.
func Device(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(DeviceCookie); err == nil && ValidDevice(c.Value) {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((5 * 365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

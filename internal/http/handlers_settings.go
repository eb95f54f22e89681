package http

import (
	"net/http"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/log"
	"cafeledger/internal/settings"

	"github.com/shopspring/decimal"
)

// loadSettings reads the caller's device settings. Without a store the
// defaults apply.
func (s *Server) loadSettings(w http.ResponseWriter, r *http.Request) (settings.Settings, error) {
	if s.settings == nil {
		return settings.Default(), nil
	}
	return s.settings.Load(r.Context(), settings.Device(w, r))
}

// updateSettings loads, mutates and saves the caller's settings under a
// single device id.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request, mutate func(*settings.Settings) error) (settings.Settings, error) {
	if s.settings == nil {
		return settings.Settings{}, core.NewValidationError("settings", "Settings are not available")
	}
	device := settings.Device(w, r)
	prefs, err := s.settings.Load(r.Context(), device)
	if err != nil {
		return prefs, err
	}
	if err := mutate(&prefs); err != nil {
		return prefs, err
	}
	if err := s.settings.Save(r.Context(), device, prefs); err != nil {
		return prefs, err
	}
	s.requestLogger(r).DebugContext(r.Context(), "Settings saved", log.FieldDevice, device)
	return prefs, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.loadSettings(w, r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

type settingsRequest struct {
	DailyTarget  *decimal.Decimal           `json:"dailyTarget"`
	StartingCash map[string]decimal.Decimal `json:"startingCash"`
}

// handlePutSettings replaces the fields present in the body.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	prefs, err := s.updateSettings(w, r, func(prefs *settings.Settings) error {
		if req.DailyTarget != nil {
			if err := prefs.SetDailyTarget(*req.DailyTarget); err != nil {
				return err
			}
		}
		if req.StartingCash == nil {
			return nil
		}
		next := settings.Default()
		for key, amount := range req.StartingCash {
			day, err := time.Parse("2006-01-02", key)
			if err != nil {
				return core.NewValidationError("startingCash", "Starting cash dates must look like 2024-01-31")
			}
			if err := next.SetStartingCash(day, amount); err != nil {
				return err
			}
		}
		prefs.StartingCash = next.StartingCash
		return nil
	})
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewHTMXResponse().TriggerLedgerChanged().BodyJSON(prefs).Write(w)
}

func (s *Server) handlePutStartingCash(w http.ResponseWriter, r *http.Request) {
	day, err := time.ParseInLocation("2006-01-02", r.PathValue("date"), s.now().Location())
	if err != nil {
		s.fail(w, r, log.OpValidate, core.NewValidationError("date", "Date must look like 2024-01-31"))
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, log.OpParse, core.NewValidationError("body", "Could not read the amount"))
		return
	}
	amount := decimal.Zero
	if raw := p.Get("amount"); raw != "" {
		if amount, err = decimal.NewFromString(raw); err != nil {
			s.fail(w, r, log.OpValidate, core.NewValidationError("amount", "Starting cash must be a number"))
			return
		}
	}

	prefs, err := s.updateSettings(w, r, func(prefs *settings.Settings) error {
		return prefs.SetStartingCash(day, amount)
	})
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewHTMXResponse().TriggerLedgerChanged().BodyJSON(prefs).Write(w)
}

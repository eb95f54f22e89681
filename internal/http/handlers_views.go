package http

import (
	"net/http"

	"cafeledger/internal/core"
	"cafeledger/internal/forms"
	"cafeledger/internal/ledger"
	"cafeledger/internal/log"
)

type summaryResponse struct {
	Today    ledger.Summary   `json:"today"`
	AllTime  ledger.Summary   `json:"allTime"`
	Progress *ledger.Progress `json:"progress,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	prefs, err := s.loadSettings(w, r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	now := s.now()
	resp := summaryResponse{
		Today:   ledger.TodayTotals(txs, now),
		AllTime: ledger.Totals(txs),
	}
	if p, ok := ledger.TargetProgress(resp.Today.Profit, prefs.DailyTarget); ok {
		resp.Progress = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": ledger.CategoryRollup(txs),
		"week":       ledger.WeekSeries(txs, s.now()),
	})
}

func (s *Server) handleCash(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	prefs, err := s.loadSettings(w, r)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, ledger.CashReconciliation(txs, prefs.StartingCashOn(now), now))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	q := r.URL.Query()
	typ := core.TransactionType(q.Get("type"))
	if !typ.Valid() {
		typ = core.Income
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": ledger.CategorySuggestions(txs, sanitizeInput(q.Get("q")), 0),
		"quickPicks":  forms.QuickPicks(typ),
	})
}

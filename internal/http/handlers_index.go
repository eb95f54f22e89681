package http

import (
	"bytes"
	"net/http"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/forms"
	"cafeledger/internal/ledger"
	"cafeledger/internal/log"
	"cafeledger/internal/settings"

	"golang.org/x/sync/errgroup"
)

type indexData struct {
	Now        time.Time
	Today      []core.Transaction
	Summary    ledger.Summary
	AllTime    ledger.Summary
	Progress   *ledger.Progress
	Cash       ledger.Cash
	Week       ledger.Week
	Categories []ledger.CategoryStat
	Reminders  []core.Transaction
	Notes      []core.Note
	Settings   settings.Settings
	Session    sessionResponse
	Can        map[string]bool
	QuickPicks []string
	// SignedOut hides the ledger behind the login form.
	SignedOut bool
}

// handleIndex renders the single page. The ledger, notes and settings are
// loaded concurrently. Anonymous callers only get the login form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if identity(r) == nil {
		s.renderIndex(w, r, indexData{Now: s.now(), Session: s.session(r), SignedOut: true})
		return
	}

	var (
		txs   []core.Transaction
		notes []core.Note
		prefs = settings.Default()
	)
	device := ""
	if s.settings != nil {
		device = settings.Device(w, r)
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		txs, err = s.ledger.Transactions(ctx)
		return err
	})
	g.Go(func() (err error) {
		notes, err = s.ledger.Notes(ctx)
		return err
	})
	if s.settings != nil {
		g.Go(func() (err error) {
			prefs, err = s.settings.Load(ctx, device)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}

	now := s.now()
	data := indexData{
		Now:        now,
		Today:      ledger.Today(txs, now),
		Summary:    ledger.TodayTotals(txs, now),
		AllTime:    ledger.Totals(txs),
		Cash:       ledger.CashReconciliation(txs, prefs.StartingCashOn(now), now),
		Week:       ledger.WeekSeries(txs, now),
		Categories: ledger.CategoryRollup(txs),
		Reminders:  ledger.RecurringReminders(txs, now),
		Notes:      notes,
		Settings:   prefs,
		Session:    s.session(r),
		Can:        map[string]bool{},
		QuickPicks: forms.QuickPicks(core.Expense),
	}
	for action, ok := range data.Session.Permissions {
		data.Can[string(action)] = ok
	}
	if p, ok := ledger.TargetProgress(data.Summary.Profit, prefs.DailyTarget); ok {
		data.Progress = &p
	}

	s.renderIndex(w, r, data)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, data indexData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

package http

import (
	"net/http"
	"strings"

	"cafeledger/internal/core"
	"cafeledger/internal/ledger"
	"cafeledger/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseHistoryFilter(r.URL.Query(), s.now().Location())
	if err != nil {
		s.fail(w, r, log.OpParse, err)
		return
	}
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": ledger.Filter(txs, filter)})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	form, receipt, err := ParseTransactionRequest(r, s.receiptLimit)
	if err != nil {
		s.requestLogger(r).InfoContext(r.Context(), "Unreadable transaction form", log.FieldError, err)
		s.fail(w, r, log.OpParse, core.NewValidationError("body", "Could not read the submitted form"))
		return
	}
	if receipt != nil {
		defer receipt.Close()
	}

	sub, err := form.Normalize(s.now())
	if err != nil {
		s.fail(w, r, log.OpValidate, err)
		return
	}
	if receipt != nil {
		sub.AttachReceipt(receipt, s.receiptLimit)
	}

	if err := s.ledger.CreateTransaction(r.Context(), identity(r), sub); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}

	resp := NewHTMXResponse().Status(http.StatusCreated).TriggerLedgerChanged().TriggerFormReset()
	if len(sub.Warnings) > 0 {
		resp.TriggerWarningNotification(strings.Join(sub.Warnings, " "))
	} else {
		resp.TriggerSuccessNotification("Transaction saved")
	}
	warnings := sub.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	resp.BodyJSON(map[string]any{"ok": true, "warnings": warnings}).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewHTMXResponse().TriggerLedgerChanged().
		BodyJSON(map[string]bool{"ok": true}).Write(w)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ClearAll(r.Context(), identity(r)); err != nil {
		s.fail(w, r, log.OpClear, err)
		return
	}
	NewHTMXResponse().TriggerLedgerChanged().TriggerSuccessNotification("All transactions cleared").
		BodyJSON(map[string]bool{"ok": true}).Write(w)
}

func (s *Server) handleAddRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.AddRecurringForThisMonth(r.Context(), identity(r), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewHTMXResponse().Status(http.StatusCreated).TriggerLedgerChanged().
		TriggerSuccessNotification("Added for this month").
		BodyJSON(map[string]bool{"ok": true}).Write(w)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	reminders := ledger.RecurringReminders(txs, s.now())
	if reminders == nil {
		reminders = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}

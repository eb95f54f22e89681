package http

import (
	"bytes"
	"net/http"

	"cafeledger/internal/export"
	"cafeledger/internal/ledger"
	"cafeledger/internal/log"
)

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", export.CSVFilename)
	if err := export.WriteCSV(w, txs); err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "CSV export interrupted", log.FieldError, err)
	}
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	attachment(w, "application/json", export.JSONFilename)
	if err := export.WriteJSON(w, txs); err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "JSON export interrupted", log.FieldError, err)
	}
}

// handleDailyClose renders today's printable report. It is buffered so a
// template failure still yields a clean 500.
func (s *Server) handleDailyClose(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteDailyClose(&buf, ledger.DailyClose(txs, s.now())); err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

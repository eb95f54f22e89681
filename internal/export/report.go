package export

import (
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/ledger"
	"cafeledger/web"
)

var (
	reportOnce sync.Once
	reportTmpl *template.Template
	reportErr  error
)

var reportFuncs = template.FuncMap{
	"money": core.FormatAmount,
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"day":   func(t time.Time) string { return t.Format("Monday, 02 January 2006") },
}

func dailyCloseTemplate() (*template.Template, error) {
	reportOnce.Do(func() {
		reportTmpl, reportErr = template.New("daily_close.html").
			Funcs(reportFuncs).
			ParseFS(web.TemplatesFS, "templates/daily_close.html")
	})
	return reportTmpl, reportErr
}

// WriteDailyClose renders report as a printable HTML page. Transaction
// times are shown in the location of report.Day.
func WriteDailyClose(w io.Writer, report ledger.DailyReport) error {
	tmpl, err := dailyCloseTemplate()
	if err != nil {
		return fmt.Errorf("parse daily close template: %w", err)
	}
	loc := report.Day.Location()
	rows := make([]core.Transaction, len(report.Transactions))
	for i, tx := range report.Transactions {
		tx.Date = tx.Date.In(loc)
		rows[i] = tx
	}
	data := struct {
		Day          time.Time
		Summary      ledger.Summary
		Transactions []core.Transaction
	}{report.Day, report.Summary, rows}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render daily close: %w", err)
	}
	return nil
}

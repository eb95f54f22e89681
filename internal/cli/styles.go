package cli

import (
	"fmt"
	"io"
	"strings"

	"cafeledger/internal/core"
	"cafeledger/internal/ledger"

	"github.com/charmbracelet/lipgloss"
)

var (
	IncomeColor  = lipgloss.Color("#2E9E5B")
	ExpenseColor = lipgloss.Color("#D9534F")
	SubtleColor  = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	IncomeStyle  = lipgloss.NewStyle().Foreground(IncomeColor)
	ExpenseStyle = lipgloss.NewStyle().Foreground(ExpenseColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(ExpenseColor)

	// BoxStyle frames a block of totals.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 1)
)

func typeStyle(t core.TransactionType) lipgloss.Style {
	if t == core.Expense {
		return ExpenseStyle
	}
	return IncomeStyle
}

// RenderDailyClose writes the daily close as a styled terminal report.
func RenderDailyClose(w io.Writer, report ledger.DailyReport) error {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Daily close " + report.Day.Format("Monday, 02 January 2006")))
	b.WriteString("\n")

	totals := lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render("Income\n"+IncomeStyle.Render(core.FormatAmount(report.Summary.Income))),
		BoxStyle.Render("Expense\n"+ExpenseStyle.Render(core.FormatAmount(report.Summary.Expense))),
		BoxStyle.Render("Profit\n"+core.FormatAmount(report.Summary.Profit)),
	)
	b.WriteString(totals)
	b.WriteString("\n\n")

	if len(report.Transactions) == 0 {
		b.WriteString(SubtleStyle.Render("No transactions today."))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%-6s %-8s %-24s %12s\n",
		HeaderStyle.Render("Time"), HeaderStyle.Render("Type"),
		HeaderStyle.Render("Category"), HeaderStyle.Render("Amount"))
	loc := report.Day.Location()
	for _, tx := range report.Transactions {
		fmt.Fprintf(&b, "%-6s %-8s %-24s %12s\n",
			tx.Date.In(loc).Format("15:04"),
			typeStyle(tx.Type).Render(string(tx.Type)),
			tx.Category,
			core.FormatAmount(tx.Amount))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderReminders lists the recurring entries still due this month.
func RenderReminders(w io.Writer, due []core.Transaction) error {
	if len(due) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("Nothing recurring is due this month."))
		return err
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Recurring entries due this month"))
	b.WriteString("\n")
	for _, tx := range due {
		fmt.Fprintf(&b, "%s  %-24s %12s  %s\n",
			SubtleStyle.Render(tx.ID),
			tx.Category,
			typeStyle(tx.Type).Render(core.FormatAmount(tx.Amount)),
			SubtleStyle.Render("last "+tx.Date.Format("02 Jan 2006")))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

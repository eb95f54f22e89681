package main

import (
	"fmt"
	"io"
	"os"

	"cafeledger/internal/auth"
	"cafeledger/internal/cli"
	"cafeledger/internal/config"
	"cafeledger/internal/export"
	"cafeledger/internal/ledger"
	"cafeledger/internal/storage"
	"cafeledger/internal/storage/postgres"

	"github.com/spf13/cobra"
)

// output opens path for writing, or stdout when path is empty or "-".
func output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export csv|json",
		Short:     "Export every transaction",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "json"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			txs, err := a.ledger.Transactions(cmd.Context())
			if err != nil {
				return err
			}
			w, closeFn, err := output(out)
			if err != nil {
				return err
			}
			if args[0] == "csv" {
				err = export.WriteCSV(w, txs)
			} else {
				err = export.WriteJSON(w, txs)
			}
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			if err == nil && out != "" && out != "-" {
				fmt.Fprintln(os.Stderr, cli.SuccessStyle.Render(fmt.Sprintf("Exported %d transactions to %s", len(txs), out)))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func closeCmd() *cobra.Command {
	var html string
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Show today's daily close",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			txs, err := a.ledger.Transactions(cmd.Context())
			if err != nil {
				return err
			}
			report := ledger.DailyClose(txs, a.ledger.Now())
			if html == "" {
				return cli.RenderDailyClose(cmd.OutOrStdout(), report)
			}
			w, closeFn, err := output(html)
			if err != nil {
				return err
			}
			err = export.WriteDailyClose(w, report)
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&html, "html", "", "write the printable HTML report to this file")
	return cmd
}

func remindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "List recurring entries not yet repeated this month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			txs, err := a.ledger.Transactions(cmd.Context())
			if err != nil {
				return err
			}
			return cli.RenderReminders(cmd.OutOrStdout(), ledger.RecurringReminders(txs, a.ledger.Now()))
		},
	}
}

func addRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-recurring <id>",
		Short: "Repeat a recurring entry for the current month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.AddRecurringForThisMonth(cmd.Context(), operator, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Added "+args[0]+" for this month"))
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the ledger without --yes")
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.ClearAll(cmd.Context(), operator); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.WarningStyle.Render("All transactions deleted"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every transaction")
	return cmd
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <admin|moderator|user>",
		Short: "Store a role override for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := auth.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backend.Ledger.SetProfileRole(cmd.Context(), auth.UserID(args[0]), string(role)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(fmt.Sprintf("%s is now %s", args[0], role)))
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch cfg.DataBackend {
			case config.BackendSQLite:
				dsn := storage.DSN(cfg.SQLiteDBPath)
				if err := storage.RunMigrations(dsn); err != nil {
					return err
				}
				version, dirty, err := storage.MigrationVersion(dsn)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(fmt.Sprintf("SQLite schema at version %d (dirty=%v)", version, dirty)))
			case config.BackendPostgres:
				if err := postgres.RunMigrations(cfg.PostgresURL); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Postgres schema is up to date"))
			default:
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("The memory backend has no schema"))
			}
			return nil
		},
	}
}

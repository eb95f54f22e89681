package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cafeledger/internal/cli"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the cafe ledger from the terminal",
		Long: `ledgerctl reads and maintains the cafe ledger directly against its
configured backend: exports, the daily close, recurring reminders,
clearing and schema migrations.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ledgerctl.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "data backend (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite database path")
	rootCmd.PersistentFlags().String("postgres-url", "", "PostgreSQL connection URL")
	rootCmd.PersistentFlags().String("timezone", "", "timezone that defines calendar days")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("data_backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("sqlite_db_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	_ = viper.BindPFlag("postgres_url", rootCmd.PersistentFlags().Lookup("postgres-url"))
	_ = viper.BindPFlag("ledger_timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(closeCmd())
	rootCmd.AddCommand(remindersCmd())
	rootCmd.AddCommand(addRecurringCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(setRoleCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sheetsAuthCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("ledgerctl")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/presence-payroll-go/internal/config"
	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/presence-payroll-go/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/presence-payroll-go/internal/service/payroll"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "payrollctl",
	Short: "Operator tool for the presence payroll engine",
	Long: `payrollctl runs schema migrations, previews and commits payroll periods,
and issues API tokens. It reads the same environment as the API process.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputLocale, "locale", "en", "Locale for amount formatting, e.g. en or id")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(config.NewLogger(cfg.App))
	return cfg, nil
}

// openPayroll connects to the database and builds the payroll service. The
// CLI runs without the Redis commit lock; the serializable transaction keeps
// commits correct.
func openPayroll(ctx context.Context) (payroll.PayrollService, *database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	zone, err := cfg.Zone()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	svc := payrollService.NewPayrollService(
		postgresql.NewPayrollRepository(db),
		postgresql.NewAttendanceRepository(db),
		postgresql.NewTransactor(db),
		nil,
		metrics.New(),
		payrollService.Config{
			Zone:         zone,
			MaxAttempts:  cfg.Payroll.CommitMaxAttempts,
			RetryBackoff: cfg.Payroll.CommitBackoff,
		},
	)
	return svc, db, nil
}

package cmd

import (
	"fmt"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	commitMarkPaid   bool
	commitAdjustment string
	commitPeriodEnd  string
)

var commitCmd = &cobra.Command{
	Use:   "commit <employee-id>",
	Short: "Commit the next payroll period for an employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommit,
}

func init() {
	commitCmd.Flags().BoolVar(&commitMarkPaid, "mark-paid", false, "Record the slip as paid instead of draft")
	commitCmd.Flags().StringVar(&commitAdjustment, "adjustment", "", "Signed amount added to net pay, e.g. 150000 or -25000")
	commitCmd.Flags().StringVar(&commitPeriodEnd, "expect-period-end", "", "Refuse to commit unless the next period ends on this date (YYYY-MM-DD)")
}

// commitRequest builds the request from flags.
func commitRequest(employeeID string) (payroll.CommitRequest, error) {
	req := payroll.CommitRequest{
		EmployeeID: employeeID,
		MarkPaid:   commitMarkPaid,
	}
	if commitAdjustment != "" {
		adj, err := decimal.NewFromString(commitAdjustment)
		if err != nil {
			return payroll.CommitRequest{}, fmt.Errorf("invalid --adjustment %q: %w", commitAdjustment, err)
		}
		req.OtherAdjustment = &adj
	}
	if commitPeriodEnd != "" {
		end := commitPeriodEnd
		req.ExpectedPeriodEnd = &end
	}
	return req, nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	req, err := commitRequest(args[0])
	if err != nil {
		return err
	}

	svc, db, err := openPayroll(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	slip, err := svc.Commit(cmd.Context(), req)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), slip)
	}
	return writeSlip(cmd.OutOrStdout(), slip)
}

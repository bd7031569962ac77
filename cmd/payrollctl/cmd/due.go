package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List employees whose next payroll period has ended",
	Args:  cobra.NoArgs,
	RunE:  runDue,
}

func runDue(cmd *cobra.Command, args []string) error {
	svc, db, err := openPayroll(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	due, err := svc.DueCommits(cmd.Context())
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), due)
	}
	if len(due) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No payroll periods due.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPLOYEE\tPERIOD START\tPERIOD END")
	for _, d := range due {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.EmployeeID, d.PeriodStart, d.PeriodEnd)
	}
	return tw.Flush()
}

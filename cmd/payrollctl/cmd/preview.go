package cmd

import (
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <employee-id>",
	Short: "Show the next payroll period for an employee without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	svc, db, err := openPayroll(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := svc.Preview(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	return writePreview(cmd.OutOrStdout(), res)
}

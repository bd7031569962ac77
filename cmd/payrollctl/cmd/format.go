package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	outputLocale = "en"
	outputJSON   bool
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// amountPrinter formats money with the grouping of the chosen locale.
func amountPrinter() *message.Printer {
	tag, err := language.Parse(outputLocale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func formatAmount(p *message.Printer, d decimal.Decimal) string {
	return p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func writePreview(w io.Writer, res payroll.PreviewResponse) error {
	p := amountPrinter()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rows := [][2]string{
		{"Employee", res.EmployeeID},
		{"Period", res.PeriodStart + " .. " + res.PeriodEnd},
		{"Complete", fmt.Sprintf("%t", res.PeriodComplete)},
		{"Timezone", res.Timezone},
		{"Base salary", formatAmount(p, res.BaseSalary)},
		{"Per day", formatAmount(p, res.PerDay) + " (" + res.PerDayRounding + ")"},
		{"Working days", fmt.Sprintf("%d", res.WorkingDaysCount)},
		{"Absent days", fmt.Sprintf("%d", res.AbsentDays)},
		{"Absent dates", strings.Join(res.AbsentDates, ", ")},
		{"Absent deduction", formatAmount(p, res.AbsentDeduction)},
		{"Open advances", fmt.Sprintf("%d (%s)", res.OpenAdvancesCount, formatAmount(p, res.OpenAdvanceTotal))},
		{"Advance to apply", formatAmount(p, res.RecommendedAdvanceApply)},
		{"Net pay", formatAmount(p, res.NetPay)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

func writeSlip(w io.Writer, slip payroll.SlipResponse) error {
	p := amountPrinter()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rows := [][2]string{
		{"Slip", slip.ID},
		{"Employee", slip.EmployeeID},
		{"Period", slip.PeriodStart + " .. " + slip.PeriodEnd},
		{"Status", slip.Status},
		{"Base salary", formatAmount(p, slip.BaseSalary)},
		{"Absent days", fmt.Sprintf("%d", slip.AbsentDays)},
		{"Absent deduction", formatAmount(p, slip.AbsentDeduction)},
		{"Advances applied", fmt.Sprintf("%d (%s)", len(slip.AdvancesApplied), formatAmount(p, slip.AdvancesTotal))},
		{"Other adjustment", formatAmount(p, slip.OtherAdjustment)},
		{"Net pay", formatAmount(p, slip.NetPay)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

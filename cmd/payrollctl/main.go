package main

import "github.com/cmlabs-hris/presence-payroll-go/cmd/payrollctl/cmd"

func main() {
	cmd.Execute()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"collectsim/internal/format"
	"collectsim/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the embedded simulation scenarios",
	RunE:  runScenarios,
}

func runScenarios(cmd *cobra.Command, _ []string) error {
	tb := format.NewTable(format.ASCII)
	tb.Header("Name", "Days", "Debtors", "Collectors", "Description")
	tb.Columns(format.ColumnConfig{Number: 5, MaxWidth: 60})
	for _, name := range scenario.List() {
		sc, err := scenario.Load(name)
		if err != nil {
			return err
		}
		tb.Row(sc.Name, sc.Days, sc.Debtors.Count, len(sc.Collectors), sc.Description)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}

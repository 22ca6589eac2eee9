package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"collectsim/internal/format"
	"collectsim/internal/store"
)

var historyFlags struct {
	dbPath   string
	markdown bool
	deleteID int64
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List saved experiment reports, or show one by id",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.dbPath, "db", store.DefaultDBPath, "History DB path")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
	f.Int64Var(&historyFlags.deleteID, "delete", 0, "Delete the saved report with this id")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.Open(historyFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	if historyFlags.deleteID != 0 {
		if err := st.Delete(historyFlags.deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted #%d\n", historyFlags.deleteID)
		return nil
	}

	mode := format.ASCII
	if historyFlags.markdown {
		mode = format.Markdown
	}

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		rep, err := st.GetReport(id)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rep.Render(mode))
		return nil
	}

	rows, err := st.List()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No saved experiments.")
		return nil
	}
	tb := format.NewTable(mode)
	tb.Header("#", "Scenario", "Policies", "Runs", "Base Seed", "Created")
	tb.Columns(format.ColumnConfig{Number: 4, Align: format.AlignRight})
	for _, r := range rows {
		tb.Row(r.ID, r.Scenario, r.Policies, r.Runs, r.BaseSeed, r.CreatedAt.Format(time.RFC3339))
	}
	fmt.Fprintln(out, tb.String())
	return nil
}

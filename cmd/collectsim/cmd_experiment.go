package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"collectsim/internal/experiment"
	"collectsim/internal/format"
	"collectsim/internal/store"
)

var experimentFlags struct {
	scenario string
	policies []string
	runs     int
	parallel int
	seed     uint64
	markdown bool
	output   string
	dbPath   string
}

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Compare policies over repeated episodes with significance tests",
	Long: `Experiment runs every policy through repeated independent episodes,
each with a freshly sampled economic profile, then compares the
collected-fraction distributions pairwise with Welch's t-test and the
Mann-Whitney U test.`,
	RunE: runExperiment,
}

func init() {
	f := experimentCmd.Flags()
	f.StringVar(&experimentFlags.scenario, "scenario", "district", "Scenario name or path to a YAML file")
	f.StringSliceVar(&experimentFlags.policies, "policies", nil, "Policies to compare (default from scenario)")
	f.IntVar(&experimentFlags.runs, "runs", 0, "Repetitions per policy (0 = scenario default)")
	f.IntVar(&experimentFlags.parallel, "parallel", runtime.NumCPU(), "Number of parallel workers")
	f.Uint64Var(&experimentFlags.seed, "seed", 0, "Base seed (0 = scenario default)")
	f.BoolVar(&experimentFlags.markdown, "markdown", false, "Render tables as Markdown instead of ASCII")
	f.StringVarP(&experimentFlags.output, "output", "o", "", "Write the full report as JSON to this path")
	f.StringVar(&experimentFlags.dbPath, "db", "", "Save the report to this history DB (empty = do not save)")
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	sc, err := loadScenario(experimentFlags.scenario)
	if err != nil {
		return err
	}

	rep, err := experiment.Run(cmd.Context(), sc, experiment.Options{
		Policies: experimentFlags.policies,
		Runs:     experimentFlags.runs,
		Parallel: experimentFlags.parallel,
		BaseSeed: experimentFlags.seed,
	})
	if err != nil {
		return err
	}

	mode := format.ASCII
	if experimentFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, rep.Render(mode))

	if experimentFlags.output != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(experimentFlags.output, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "\nReport: %s\n", experimentFlags.output)
	}

	if experimentFlags.dbPath != "" {
		st, err := store.Open(experimentFlags.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		rowID, err := st.SaveReport(rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSaved to history as #%d (%s)\n", rowID, experimentFlags.dbPath)
	}
	return nil
}

package experiment

import (
	"fmt"
	"strings"

	"collectsim/internal/format"
)

// Render writes the report as two tables, policy summaries and pairwise
// comparisons, in the given output mode.
func (r *Report) Render(mode format.Mode) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Experiment %s on scenario %q: %d runs per policy, base seed %d, %s\n\n",
		r.ID, r.Scenario, r.Runs, r.BaseSeed, format.FmtDuration(r.Elapsed))

	sum := format.NewTable(mode)
	sum.Header("Policy", "Mean Collected", "Fraction", "Stddev", "Visits/Run", "50% Reached", "80% Reached", "Mean Day to 80%")
	sum.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
	)
	for _, pr := range r.Policies {
		s := pr.Stats
		sum.Row(
			pr.Policy,
			format.FmtMoney(s.MeanCollected),
			format.FmtPercent(s.MeanFraction),
			fmt.Sprintf("%.4f", s.StddevFraction),
			fmt.Sprintf("%.1f", s.MeanVisits),
			fmt.Sprintf("%d/%d", s.Reached50, len(pr.Runs)),
			fmt.Sprintf("%d/%d", s.Reached80, len(pr.Runs)),
			fmt.Sprintf("%.1f", s.MeanDayTo80),
		)
	}
	b.WriteString(sum.String())
	b.WriteString("\n")

	if len(r.Comparisons) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	cmp := format.NewTable(mode)
	cmp.Header("Pair", "Welch p", "Mann-Whitney p", "Cohen's d", "Significant", "Verdict")
	for _, c := range r.Comparisons {
		cmp.Row(
			fmt.Sprintf("%s vs %s", c.PolicyA, c.PolicyB),
			format.FmtPValue(c.Welch.P),
			format.FmtPValue(c.MannWhitney.P),
			fmt.Sprintf("%.3f", c.EffectSize),
			format.BoolMark(c.Significant),
			c.Verdict,
		)
	}
	b.WriteString(cmp.String())
	b.WriteString("\n")
	return b.String()
}

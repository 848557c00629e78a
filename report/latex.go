// Package report renders the estimation output as LaTeX tables and an
// xlsx workbook.
package report

import (
	"fmt"
	"io"

	"github.com/eykalynet/k12-schooling-fertility/lopo"
	"github.com/eykalynet/k12-schooling-fertility/panel"
	"github.com/eykalynet/k12-schooling-fertility/regress"
)

// unavailable marks a cell whose fit was infeasible.
const unavailable = "--"

func cellTex(c lopo.Cell) string {
	if !c.Valid {
		return unavailable
	}
	return fmt.Sprintf("%.4f%s & (%.4f)", c.Coef, regress.Stars(c.P), c.SE)
}

// LatexLOPO writes the leave-one-out results as a LaTeX tabular:
// the baseline estimates, the across-exclusion summary, and one row
// per excluded province, sorted by province name.
func LatexLOPO(w io.Writer, res *lopo.Result) error {

	ncol := 1 + 2*len(res.Outcomes)
	if _, err := fmt.Fprintf(w, "%% run %s\n", res.RunID); err != nil {
		return err
	}
	fmt.Fprintf(w, "\\begin{tabular}{l%s}\n\\hline\n", repeat("rr", len(res.Outcomes)))

	fmt.Fprintf(w, "Excluded province")
	for _, out := range res.Outcomes {
		fmt.Fprintf(w, " & \\multicolumn{2}{c}{%s}", out)
	}
	fmt.Fprintf(w, " \\\\\n\\hline\n")

	fmt.Fprintf(w, "None (baseline)")
	for _, c := range res.Baseline {
		fmt.Fprintf(w, " & %s", cellTex(c))
	}
	fmt.Fprintf(w, " \\\\\n\\hline\n")

	for _, row := range res.Rows {
		fmt.Fprintf(w, "%s", row.Name)
		for _, c := range row.Cells {
			fmt.Fprintf(w, " & %s", cellTex(c))
		}
		fmt.Fprintf(w, " \\\\\n")
	}

	fmt.Fprintf(w, "\\hline\n")
	for _, s := range res.Summaries {
		fmt.Fprintf(w, "\\multicolumn{%d}{l}{%s: mean %.4f, sd %.4f, min %.4f (%s), max %.4f (%s), %d fits} \\\\\n",
			ncol, s.Outcome, s.Mean, s.SD, s.Min, s.MinGroup, s.Max, s.MaxGroup, s.NValid)
	}
	_, err := fmt.Fprintf(w, "\\hline\n\\end{tabular}\n")
	return err
}

// LatexHazard writes the empirical hazard profile as a LaTeX tabular.
func LatexHazard(w io.Writer, hz []panel.AgeHazard) error {

	fmt.Fprintf(w, "\\begin{tabular}{rrrrrr}\n\\hline\n")
	fmt.Fprintf(w, "Age & Person-years & Hazard & SE & Lower & Upper \\\\\n\\hline\n")
	for _, h := range hz {
		fmt.Fprintf(w, "%d & %d & %.4f & %.4f & %.4f & %.4f \\\\\n",
			h.Age, h.N, h.Rate, h.SE, h.Lo, h.Hi)
	}
	_, err := fmt.Fprintf(w, "\\hline\n\\end{tabular}\n")
	return err
}

// LatexRestrictions writes robustness-check rows, one per restriction.
func LatexRestrictions(w io.Writer, outcomes []string, labels []string, cells [][]lopo.Cell) error {

	fmt.Fprintf(w, "\\begin{tabular}{l%s}\n\\hline\n", repeat("rr", len(outcomes)))
	fmt.Fprintf(w, "Restriction")
	for _, out := range outcomes {
		fmt.Fprintf(w, " & \\multicolumn{2}{c}{%s}", out)
	}
	fmt.Fprintf(w, " \\\\\n\\hline\n")
	for i, lab := range labels {
		fmt.Fprintf(w, "%s", lab)
		for _, c := range cells[i] {
			fmt.Fprintf(w, " & %s", cellTex(c))
		}
		fmt.Fprintf(w, " \\\\\n")
	}
	_, err := fmt.Fprintf(w, "\\hline\n\\end{tabular}\n")
	return err
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

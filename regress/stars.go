package regress

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PValue returns the two-sided p-value of a t statistic with df
// residual degrees of freedom.
func PValue(df int, tstat float64) float64 {
	if df <= 0 {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return 2 * dist.Survival(math.Abs(tstat))
}

// Stars maps a two-sided p-value to the conventional significance
// marker: *** below 0.01, ** below 0.05, * below 0.10.
func Stars(p float64) string {
	switch {
	case p < 0.01:
		return "***"
	case p < 0.05:
		return "**"
	case p < 0.10:
		return "*"
	default:
		return ""
	}
}

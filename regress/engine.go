// Package regress fits weighted fixed-effects linear models with
// cluster-robust standard errors.
package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/eykalynet/k12-schooling-fertility/sample"
)

// Spec describes one regression: the outcome, the focal regressor
// whose coefficient is reported, additional controls, categorical
// fields absorbed as fixed effects, and the cluster and weight fields.
type Spec struct {
	Outcome  string
	Focal    string
	Controls []string
	Absorb   []string
	Cluster  string
	Weight   string
}

// Result holds the focal-coefficient estimate from one fit.
type Result struct {
	Coef    float64
	SE      float64
	P       float64
	DFResid int
	N       int
	R2      float64
}

// FitError reports that a single fit was infeasible for the given
// sample, for example after excluding a group that leaves too few
// observations or a collinear design.
type FitError struct {
	Reason string
}

func (e *FitError) Error() string {
	return "fit: " + e.Reason
}

func fitErrorf(format string, args ...interface{}) *FitError {
	return &FitError{Reason: fmt.Sprintf(format, args...)}
}

// Engine fits a model on a sample and reports the focal coefficient.
type Engine interface {
	Fit(t *sample.Table, spec Spec) (*Result, error)
}

// FEWLS is a fixed-effects weighted least squares engine.  Absorbed
// fields are removed by weighted demeaning (alternating projections
// when more than one field is absorbed), the reduced system is solved
// by normal equations, and the variance is the CR1 cluster sandwich.
type FEWLS struct {

	// MaxIter bounds the demeaning sweeps for multi-way absorption.
	MaxIter int

	// Tol is the convergence threshold for demeaning.
	Tol float64
}

// NewFEWLS returns an engine with default settings.
func NewFEWLS() *FEWLS {
	return &FEWLS{MaxIter: 200, Tol: 1e-10}
}

// groupix encodes one absorbed field as compact level indices.
type groupix struct {
	ix      []int
	nlevels int
}

func encodeGroups(c []float64) groupix {
	m := make(map[float64]int)
	ix := make([]int, len(c))
	for i, v := range c {
		j, ok := m[v]
		if !ok {
			j = len(m)
			m[v] = j
		}
		ix[i] = j
	}
	return groupix{ix: ix, nlevels: len(m)}
}

// demean subtracts weighted group means of each work column, cycling
// over the absorbed fields until the subtracted means are negligible.
func (e *FEWLS) demean(work [][]float64, w []float64, groups []groupix) error {

	maxiter := e.MaxIter
	if maxiter <= 0 {
		maxiter = 200
	}
	tol := e.Tol
	if tol <= 0 {
		tol = 1e-10
	}

	for iter := 0; iter < maxiter; iter++ {
		delta := 0.0
		for _, g := range groups {
			sw := make([]float64, g.nlevels)
			for i, j := range g.ix {
				sw[j] += w[i]
			}
			for _, col := range work {
				swx := make([]float64, g.nlevels)
				for i, j := range g.ix {
					swx[j] += w[i] * col[i]
				}
				for j := range swx {
					swx[j] /= sw[j]
					if a := math.Abs(swx[j]); a > delta {
						delta = a
					}
				}
				for i, j := range g.ix {
					col[i] -= swx[j]
				}
			}
		}
		if delta < tol {
			return nil
		}
		if len(groups) == 1 && iter > 0 {
			// One-way absorption is exact after a single sweep.
			return nil
		}
	}
	return fitErrorf("demeaning did not converge in %d sweeps", maxiter)
}

// Fit estimates the model on the given sample.  All failures are
// reported as *FitError.
func (f *FEWLS) Fit(t *sample.Table, spec Spec) (*Result, error) {

	n := t.N()
	if n == 0 {
		return nil, fitErrorf("empty sample")
	}

	col := func(name string) ([]float64, error) {
		c, err := t.Col(name)
		if err != nil {
			return nil, fitErrorf("missing variable %q", name)
		}
		return c, nil
	}

	y0, err := col(spec.Outcome)
	if err != nil {
		return nil, err
	}
	w, err := col(spec.Weight)
	if err != nil {
		return nil, err
	}
	cl, err := col(spec.Cluster)
	if err != nil {
		return nil, err
	}

	// Regressors: focal first, then controls, then an intercept when
	// nothing is absorbed (demeaning otherwise removes it).
	xnames := append([]string{spec.Focal}, spec.Controls...)
	k := len(xnames)
	xcols := make([][]float64, 0, k+1)
	for _, na := range xnames {
		c, err := col(na)
		if err != nil {
			return nil, err
		}
		xc := make([]float64, n)
		copy(xc, c)
		xcols = append(xcols, xc)
	}
	if len(spec.Absorb) == 0 {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		xcols = append(xcols, ones)
		k++
	}

	y := make([]float64, n)
	copy(y, y0)

	// Absorb fixed effects.
	dfAbsorb := 0
	if len(spec.Absorb) > 0 {
		groups := make([]groupix, len(spec.Absorb))
		for i, na := range spec.Absorb {
			c, err := col(na)
			if err != nil {
				return nil, err
			}
			groups[i] = encodeGroups(c)
			dfAbsorb += groups[i].nlevels - 1
		}
		dfAbsorb++ // common intercept
		work := append([][]float64{y}, xcols...)
		if err := f.demean(work, w, groups); err != nil {
			return nil, err
		}
	}

	df := n - k - dfAbsorb
	if df <= 0 {
		return nil, fitErrorf("insufficient residual degrees of freedom (n=%d)", n)
	}

	// Normal equations with weights: (X'WX) b = X'Wy.
	xd := make([]float64, n*k)
	wxd := make([]float64, n*k)
	wyd := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			v := xcols[j][i]
			xd[i*k+j] = v
			wxd[i*k+j] = w[i] * v
		}
		wyd[i] = w[i] * y[i]
	}
	xm := mat.NewDense(n, k, xd)
	wxm := mat.NewDense(n, k, wxd)
	wym := mat.NewDense(n, 1, wyd)

	var xtwx mat.Dense
	xtwx.Mul(xm.T(), wxm)
	var xtwy mat.Dense
	xtwy.Mul(xm.T(), wym)

	var bread mat.Dense
	if err := bread.Inverse(&xtwx); err != nil {
		return nil, fitErrorf("rank-deficient design: %v", err)
	}
	var beta mat.Dense
	beta.Mul(&bread, &xtwy)

	// Residuals on the (demeaned) scale.
	resid := make([]float64, n)
	for i := 0; i < n; i++ {
		fit := 0.0
		for j := 0; j < k; j++ {
			fit += xcols[j][i] * beta.At(j, 0)
		}
		resid[i] = y[i] - fit
	}

	// CR1 cluster sandwich.
	scores := make(map[float64][]float64)
	for i := 0; i < n; i++ {
		s := scores[cl[i]]
		if s == nil {
			s = make([]float64, k)
			scores[cl[i]] = s
		}
		for j := 0; j < k; j++ {
			s[j] += w[i] * resid[i] * xcols[j][i]
		}
	}
	ng := len(scores)
	if ng < 2 {
		return nil, fitErrorf("fewer than two clusters (%d)", ng)
	}
	meat := mat.NewDense(k, k, nil)
	for _, s := range scores {
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				meat.Set(a, b, meat.At(a, b)+s[a]*s[b])
			}
		}
	}
	var tmp, vcov mat.Dense
	tmp.Mul(&bread, meat)
	vcov.Mul(&tmp, &bread)
	adj := float64(ng) / float64(ng-1) * float64(n-1) / float64(df)
	v00 := vcov.At(0, 0) * adj
	if v00 < 0 || math.IsNaN(v00) {
		return nil, fitErrorf("degenerate variance for focal regressor")
	}

	coef := beta.At(0, 0)
	se := math.Sqrt(v00)
	if se == 0 {
		return nil, fitErrorf("zero standard error for focal regressor")
	}

	// R2 against the weighted mean of the original outcome, with the
	// absorbed effects counted as explained.
	wsum := floats.Sum(w)
	ybar := 0.0
	for i := 0; i < n; i++ {
		ybar += w[i] * y0[i]
	}
	ybar /= wsum
	rss, tss := 0.0, 0.0
	for i := 0; i < n; i++ {
		rss += w[i] * resid[i] * resid[i]
		d := y0[i] - ybar
		tss += w[i] * d * d
	}
	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	return &Result{
		Coef:    coef,
		SE:      se,
		P:       PValue(df, coef/se),
		DFResid: df,
		N:       n,
		R2:      r2,
	}, nil
}

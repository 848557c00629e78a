// Package lopo re-estimates a fixed model while leaving out one group
// at a time and summarizes how sensitive the focal coefficient is to
// each exclusion.
package lopo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/eykalynet/k12-schooling-fertility/pkg/logger"
	"github.com/eykalynet/k12-schooling-fertility/regress"
	"github.com/eykalynet/k12-schooling-fertility/sample"
)

var (
	// ErrTooFewGroups indicates the grouping key has fewer than two
	// distinct values, so leave-one-out is meaningless.
	ErrTooFewGroups = errors.New("leave-one-out requires at least two groups")

	// ErrBaselineFailed indicates the full-sample fit failed for
	// every outcome.
	ErrBaselineFailed = errors.New("baseline fit failed for every outcome")
)

// Cell is one coefficient estimate.  Valid is false when the fit was
// infeasible; the remaining fields are then meaningless.
type Cell struct {
	Coef  float64
	SE    float64
	P     float64
	Valid bool
}

// GroupRow holds the estimates obtained after excluding one group,
// one Cell per outcome in run order.
type GroupRow struct {
	Group float64
	Name  string
	Cells []Cell
}

// OutcomeSummary aggregates the valid leave-one-out estimates for one
// outcome.
type OutcomeSummary struct {
	Outcome  string
	Baseline Cell
	NValid   int
	Mean     float64
	SD       float64
	Min      float64
	MinGroup string
	Max      float64
	MaxGroup string
}

// Result is the complete output of one leave-one-out run.
type Result struct {

	// RunID identifies this run in logs and reports.
	RunID string

	// Outcomes in run order.
	Outcomes []string

	// Baseline full-sample estimates, one per outcome.
	Baseline []Cell

	// Rows has exactly one entry per distinct group, sorted by
	// display name.
	Rows []GroupRow

	// Summaries per outcome.
	Summaries []OutcomeSummary
}

type runner struct {
	namer   func(code float64) string
	workers int
	log     logger.Logger
}

// Option adjusts a run.
type Option func(*runner)

// WithNamer sets the group display-name function.
func WithNamer(f func(code float64) string) Option {
	return func(r *runner) {
		if f != nil {
			r.namer = f
		}
	}
}

// WithWorkers fits excluded-group subsamples on up to n goroutines.
// The default is sequential.
func WithWorkers(n int) Option {
	return func(r *runner) {
		if n > 1 {
			r.workers = n
		}
	}
}

// WithLogger sets a custom logger for the run.
func WithLogger(lg logger.Logger) Option {
	return func(r *runner) {
		if lg != nil {
			r.log = lg
		}
	}
}

// fitOutcomes fits every outcome on one sample.  Fit failures become
// invalid cells, never errors.
func fitOutcomes(t *sample.Table, outcomes []string, spec regress.Spec, eng regress.Engine) []Cell {
	cells := make([]Cell, len(outcomes))
	for i, out := range outcomes {
		sp := spec
		sp.Outcome = out
		res, err := eng.Fit(t, sp)
		if err != nil {
			continue
		}
		cells[i] = Cell{Coef: res.Coef, SE: res.SE, P: res.P, Valid: true}
	}
	return cells
}

// Run performs the leave-one-group-out analysis.  The base table is
// only read; every excluded-group subsample is an independent copy.
// A failed fit for one (group, outcome) cell is recorded as invalid
// and never aborts the run.
func Run(t *sample.Table, groupKey string, outcomes []string, spec regress.Spec, eng regress.Engine, opts ...Option) (*Result, error) {

	r := &runner{
		namer:   func(code float64) string { return fmt.Sprintf("%.0f", code) },
		workers: 1,
		log:     logger.Get().Named("lopo"),
	}
	for _, opt := range opts {
		opt(r)
	}
	ctx := context.Background()

	levels, err := t.Levels(groupKey)
	if err != nil {
		return nil, err
	}
	if len(levels) < 2 {
		return nil, fmt.Errorf("%w: %q has %d", ErrTooFewGroups, groupKey, len(levels))
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Outcomes: append([]string(nil), outcomes...),
	}

	// Baseline reference fits on the unmodified sample.
	res.Baseline = fitOutcomes(t, outcomes, spec, eng)
	anyok := false
	for _, c := range res.Baseline {
		if c.Valid {
			anyok = true
		}
	}
	if !anyok {
		return nil, fmt.Errorf("%w: outcome %v", ErrBaselineFailed, outcomes)
	}

	// One row per group, each fit on its own excluded subsample.
	res.Rows = make([]GroupRow, len(levels))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, g := range levels {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, g float64) {
			defer wg.Done()
			defer func() { <-sem }()
			sub, err := t.Exclude(groupKey, g)
			if err != nil {
				// Levels came from the same key, so this cannot
				// happen; record an empty row to keep one row per
				// group.
				res.Rows[i] = GroupRow{Group: g, Name: r.namer(g), Cells: make([]Cell, len(outcomes))}
				return
			}
			cells := fitOutcomes(sub, outcomes, spec, eng)
			for j, c := range cells {
				if !c.Valid {
					r.log.Warn(ctx, "fit unavailable",
						logger.String("group", r.namer(g)),
						logger.String("outcome", outcomes[j]))
				}
			}
			res.Rows[i] = GroupRow{Group: g, Name: r.namer(g), Cells: cells}
		}(i, g)
	}
	wg.Wait()

	res.Summaries = summarize(res)

	sort.Slice(res.Rows, func(a, b int) bool {
		if res.Rows[a].Name != res.Rows[b].Name {
			return res.Rows[a].Name < res.Rows[b].Name
		}
		return res.Rows[a].Group < res.Rows[b].Group
	})

	r.log.Info(ctx, "leave-one-out run complete",
		logger.String("run_id", res.RunID),
		logger.Int("groups", len(levels)),
		logger.Int("outcomes", len(outcomes)))

	return res, nil
}

func summarize(res *Result) []OutcomeSummary {
	sums := make([]OutcomeSummary, len(res.Outcomes))
	for j, out := range res.Outcomes {
		s := OutcomeSummary{Outcome: out, Baseline: res.Baseline[j]}
		var coefs []float64
		for _, row := range res.Rows {
			c := row.Cells[j]
			if !c.Valid {
				continue
			}
			if len(coefs) == 0 || c.Coef < s.Min {
				s.Min = c.Coef
				s.MinGroup = row.Name
			}
			if len(coefs) == 0 || c.Coef > s.Max {
				s.Max = c.Coef
				s.MaxGroup = row.Name
			}
			coefs = append(coefs, c.Coef)
		}
		s.NValid = len(coefs)
		if len(coefs) > 0 {
			s.Mean = stat.Mean(coefs, nil)
		}
		if len(coefs) > 1 {
			s.SD = stat.StdDev(coefs, nil)
		}
		sums[j] = s
	}
	return sums
}

// Restriction keeps the rows where Field lies in [Min, Max].  The
// cohort-window and exposure-percentile robustness checks are both
// expressed this way.
type Restriction struct {
	Label string
	Field string
	Min   float64
	Max   float64
}

// Restrict refits every outcome on the restricted sample.  Fit
// failures become invalid cells, as in Run.
func Restrict(t *sample.Table, r Restriction, outcomes []string, spec regress.Spec, eng regress.Engine) ([]Cell, error) {
	c, err := t.Col(r.Field)
	if err != nil {
		return nil, err
	}
	sub := t.Filter(func(i int) bool { return c[i] >= r.Min && c[i] <= r.Max })
	return fitOutcomes(sub, outcomes, spec, eng), nil
}

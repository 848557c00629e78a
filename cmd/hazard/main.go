/*
Estimate the first-birth hazard: the weighted empirical hazard profile
by age, the discrete-time hazard regression of the birth event on
reform exposure with age, province and cohort effects absorbed, and
the same model restricted to ages under 18.
*/

package main

import (
	"context"
	"os"
	"path"

	"github.com/kshedden/dstream/dstream"

	"github.com/eykalynet/k12-schooling-fertility/config"
	"github.com/eykalynet/k12-schooling-fertility/ingest"
	"github.com/eykalynet/k12-schooling-fertility/lopo"
	"github.com/eykalynet/k12-schooling-fertility/panel"
	"github.com/eykalynet/k12-schooling-fertility/pkg/logger"
	"github.com/eykalynet/k12-schooling-fertility/regress"
	"github.com/eykalynet/k12-schooling-fertility/report"
	"github.com/eykalynet/k12-schooling-fertility/sample"
)

// hazardSpec absorbs age effects on top of the configured fixed
// effects, skipping duplicates.
func hazardSpec(cfg *config.Config) regress.Spec {
	spec := cfg.ModelSpec()
	spec.Outcome = "Event"
	absorb := []string{"Age"}
	for _, a := range spec.Absorb {
		if a != "Age" {
			absorb = append(absorb, a)
		}
	}
	spec.Absorb = absorb
	return spec
}

func main() {

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error(ctx, "load config", logger.Error(err))
		os.Exit(1)
	}
	logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("hazard")

	fatal := func(msg string, err error) {
		log.Error(ctx, msg, logger.Error(err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		fatal("create out dir", err)
	}

	// Empirical hazard profile, from the merged sample.
	women, err := ingest.ReadGob(cfg.WomenGob())
	if err != nil {
		fatal("read merged sample", err)
	}
	pp, err := panel.Build(women, cfg.MinAge, cfg.MaxAge)
	if err != nil {
		fatal("expand panel", err)
	}
	hz, err := panel.Hazard(pp, cfg.MinAge, cfg.MaxAge)
	if err != nil {
		fatal("empirical hazard", err)
	}
	fid, err := os.Create(path.Join(cfg.OutDir, "hazard_profile.tex"))
	if err != nil {
		fatal("create hazard table", err)
	}
	if err := report.LatexHazard(fid, hz); err != nil {
		fid.Close()
		fatal("write hazard table", err)
	}
	fid.Close()

	// Hazard regression, from the stored panel columns.
	data := dstream.NewBCols(cfg.PanelDir(), 100000).Done()
	tbl, err := sample.FromDstream(data, panel.Vars())
	if err != nil {
		fatal("load panel columns", err)
	}

	eng := regress.NewFEWLS()
	spec := hazardSpec(cfg)

	full, err := eng.Fit(tbl, spec)
	if err != nil {
		fatal("hazard model", err)
	}
	log.Info(ctx, "hazard model",
		logger.Float64("coef", full.Coef),
		logger.Float64("se", full.SE),
		logger.Float64("p", full.P),
		logger.Int("person_years", full.N),
		logger.Float64("r2", full.R2))

	// Same model on the under-18 risk years only.
	data = dstream.NewBCols(cfg.PanelDir(), 100000).Done()
	under18 := func(x interface{}, keep []bool) bool {
		age := x.([]float64)
		for i, a := range age {
			if a >= 18 {
				keep[i] = false
			}
		}
		return true
	}
	data = dstream.Filter(data, map[string]dstream.FilterFunc{"Age": under18})
	data.Reset()
	data = dstream.MemCopy(data)
	tbl18, err := sample.FromDstream(data, panel.Vars())
	if err != nil {
		fatal("load restricted panel", err)
	}
	r18, err := eng.Fit(tbl18, spec)
	if err != nil {
		fatal("restricted hazard model", err)
	}

	cell := func(r *regress.Result) lopo.Cell {
		return lopo.Cell{Coef: r.Coef, SE: r.SE, P: r.P, Valid: true}
	}
	fid, err = os.Create(path.Join(cfg.OutDir, "hazard_model.tex"))
	if err != nil {
		fatal("create model table", err)
	}
	defer fid.Close()
	err = report.LatexRestrictions(fid, []string{"Event"},
		[]string{"All risk years", "Ages under 18"},
		[][]lopo.Cell{{cell(full)}, {cell(r18)}})
	if err != nil {
		fatal("write model table", err)
	}
}

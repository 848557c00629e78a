/*
Run the leave-one-province-out sensitivity analysis of the
difference-in-differences estimate, plus the cohort-window and
exposure-percentile robustness checks, and write the LaTeX tables and
the xlsx workbook.
*/

package main

import (
	"context"
	"os"
	"path"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/eykalynet/k12-schooling-fertility/config"
	"github.com/eykalynet/k12-schooling-fertility/ingest"
	"github.com/eykalynet/k12-schooling-fertility/lopo"
	"github.com/eykalynet/k12-schooling-fertility/pkg/logger"
	"github.com/eykalynet/k12-schooling-fertility/regress"
	"github.com/eykalynet/k12-schooling-fertility/report"
	"github.com/eykalynet/k12-schooling-fertility/sample"
	"github.com/eykalynet/k12-schooling-fertility/utils"
)

func main() {

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error(ctx, "load config", logger.Error(err))
		os.Exit(1)
	}
	logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("lopo")

	fatal := func(msg string, err error) {
		log.Error(ctx, msg, logger.Error(err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		fatal("create out dir", err)
	}

	women, err := ingest.ReadGob(cfg.WomenGob())
	if err != nil {
		fatal("read merged sample", err)
	}
	tbl, err := sample.FromWomen(women)
	if err != nil {
		fatal("build analysis table", err)
	}

	eng := regress.NewFEWLS()
	spec := cfg.ModelSpec()

	res, err := lopo.Run(tbl, cfg.GroupKey, cfg.Outcomes, spec, eng,
		lopo.WithNamer(func(code float64) string {
			return utils.ProvinceName(uint16(code))
		}),
		lopo.WithWorkers(cfg.Workers),
		lopo.WithLogger(log))
	if err != nil {
		fatal("leave-one-out run", err)
	}

	fid, err := os.Create(path.Join(cfg.OutDir, "lopo.tex"))
	if err != nil {
		fatal("create lopo table", err)
	}
	if err := report.LatexLOPO(fid, res); err != nil {
		fid.Close()
		fatal("write lopo table", err)
	}
	fid.Close()

	if err := report.WorkbookLOPO(path.Join(cfg.OutDir, "lopo.xlsx"), res); err != nil {
		fatal("write lopo workbook", err)
	}

	// Robustness: narrow cohort window, and exposure trimmed at the
	// 95th percentile.
	expo, err := tbl.Col("Exposure")
	if err != nil {
		fatal("exposure column", err)
	}
	se := append([]float64(nil), expo...)
	sort.Float64s(se)
	p95 := stat.Quantile(0.95, stat.Empirical, se, nil)

	restrictions := []lopo.Restriction{
		{
			Label: "Cohorts within 8 years of cutoff",
			Field: "Cohort",
			Min:   float64(cfg.ReformCohort - 8),
			Max:   float64(cfg.ReformCohort + 8),
		},
		{
			Label: "Exposure below 95th percentile",
			Field: "Exposure",
			Min:   se[0],
			Max:   p95,
		},
	}
	var labels []string
	var cells [][]lopo.Cell
	for _, r := range restrictions {
		cc, err := lopo.Restrict(tbl, r, cfg.Outcomes, spec, eng)
		if err != nil {
			fatal("restriction refit", err)
		}
		labels = append(labels, r.Label)
		cells = append(cells, cc)
	}

	fid, err = os.Create(path.Join(cfg.OutDir, "lopo_robust.tex"))
	if err != nil {
		fatal("create robustness table", err)
	}
	defer fid.Close()
	if err := report.LatexRestrictions(fid, cfg.Outcomes, labels, cells); err != nil {
		fatal("write robustness table", err)
	}

	log.Info(ctx, "wrote leave-one-out output",
		logger.String("run_id", res.RunID),
		logger.Int("provinces", len(res.Rows)))
}

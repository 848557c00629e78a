/*
Survival diagnostics for the first-birth analysis: Kaplan-Meier
survival to first birth (overall and for the treated cohorts) and a
continuous-time Cox cross-check of the discrete-time hazard model.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"path"

	"gonum.org/v1/gonum/optimize"

	"github.com/kshedden/dstream/dstream"
	"github.com/kshedden/duration"

	"github.com/eykalynet/k12-schooling-fertility/config"
	"github.com/eykalynet/k12-schooling-fertility/pkg/logger"
)

func writeSurv(path string, sf *duration.SurvfuncRight) error {

	fid, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fid.Close()

	ti := sf.Time()
	sp := sf.SurvProb()
	for i := range ti {
		if _, err := fmt.Fprintf(fid, "%f,%f\n", ti[i], sp[i]); err != nil {
			return err
		}
	}
	return nil
}

func main() {

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error(ctx, "load config", logger.Error(err))
		os.Exit(1)
	}
	logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("survcheck")

	fatal := func(msg string, err error) {
		log.Error(ctx, msg, logger.Error(err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		fatal("create out dir", err)
	}

	// Overall survival to first birth.
	data := dstream.NewBCols(cfg.WomenColsDir(), 100000).Done()
	sf := duration.NewSurvfuncRight(data, "Time", "Status").Done()
	if err := writeSurv(path.Join(cfg.OutDir, "surv_firstbirth.csv"), sf); err != nil {
		fatal("write survival curve", err)
	}

	// Treated cohorts only.
	data = dstream.NewBCols(cfg.WomenColsDir(), 100000).Done()
	treated := func(x interface{}, keep []bool) bool {
		v := x.([]float64)
		for i, t := range v {
			if t != 1 {
				keep[i] = false
			}
		}
		return true
	}
	data = dstream.Filter(data, map[string]dstream.FilterFunc{"Treated": treated})
	data.Reset()
	data = dstream.MemCopy(data)
	sft := duration.NewSurvfuncRight(data, "Time", "Status").Done()
	if err := writeSurv(path.Join(cfg.OutDir, "surv_firstbirth_treated.csv"), sft); err != nil {
		fatal("write treated survival curve", err)
	}

	// Cox cross-check of the discrete-time model.
	data = dstream.NewBCols(cfg.WomenColsDir(), 100000).Done()
	data.Reset()
	da := dstream.MemCopy(data)

	opt := optimize.DefaultSettings()
	opt.GradientThreshold = 1e-3

	model := duration.NewPHReg(da, "Time", "Status").Weight("Weight").OptSettings(opt).Norm().Done()
	result, err := model.Fit()
	if err != nil {
		fatal("cox fit", err)
	}

	fid, err := os.Create(path.Join(cfg.OutDir, "cox_check.txt"))
	if err != nil {
		fatal("create cox summary", err)
	}
	defer fid.Close()
	if _, err := fid.WriteString(result.Summary() + "\n"); err != nil {
		fatal("write cox summary", err)
	}
	log.Info(ctx, "wrote survival diagnostics", logger.String("dir", cfg.OutDir))
}

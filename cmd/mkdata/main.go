/*
Build the merged analysis sample: read the women's survey extract and
the school construction and population files, compute province
exposure to the K-12 rollout, merge, and store the result as a gzipped
gob stream.
*/

package main

import (
	"context"
	"os"

	"github.com/eykalynet/k12-schooling-fertility/config"
	"github.com/eykalynet/k12-schooling-fertility/ingest"
	"github.com/eykalynet/k12-schooling-fertility/pkg/logger"
)

func main() {

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error(ctx, "load config", logger.Error(err))
		os.Exit(1)
	}
	logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("mkdata")

	fatal := func(msg string, err error) {
		log.Error(ctx, msg, logger.Error(err))
		os.Exit(1)
	}

	women, err := ingest.ReadWomen(cfg.WomenCSV, cfg.SurveyYear)
	if err != nil {
		fatal("read women", err)
	}
	log.Info(ctx, "read survey extract", logger.Int("women", len(women)))

	seats, err := ingest.ReadSchools(cfg.SchoolsCSV)
	if err != nil {
		fatal("read schools", err)
	}
	pop, err := ingest.ReadPopulation(cfg.PopCSV)
	if err != nil {
		fatal("read population", err)
	}
	exposure := ingest.Exposure(seats, pop)
	log.Info(ctx, "built exposure", logger.Int("provinces", len(exposure)))

	merged, st := ingest.Merge(women, exposure, cfg.ReformCohort, cfg.MinAge)
	log.Info(ctx, "merged sample",
		logger.Int("kept", st.Kept),
		logger.Int("dropped_early_birth", st.DroppedEarly),
		logger.Int("dropped_no_province", st.DroppedNoProv))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fatal("create data dir", err)
	}
	if err := ingest.WriteGob(cfg.WomenGob(), merged, cfg.SurveyYear, cfg.ReformCohort); err != nil {
		fatal("write merged sample", err)
	}
	log.Info(ctx, "wrote merged sample", logger.String("path", cfg.WomenGob()))
}

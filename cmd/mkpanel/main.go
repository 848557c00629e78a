/*
Expand the merged sample into the person-year first-birth panel and
store it, along with the woman-level survival variables, as binary
columns readable with dstream.NewBCols.
*/

package main

import (
	"context"
	"os"

	"github.com/eykalynet/k12-schooling-fertility/colfile"
	"github.com/eykalynet/k12-schooling-fertility/config"
	"github.com/eykalynet/k12-schooling-fertility/ingest"
	"github.com/eykalynet/k12-schooling-fertility/panel"
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
	log := logger.Get().Named("mkpanel")

	fatal := func(msg string, err error) {
		log.Error(ctx, msg, logger.Error(err))
		os.Exit(1)
	}

	women, err := ingest.ReadGob(cfg.WomenGob())
	if err != nil {
		fatal("read merged sample", err)
	}

	pp, err := panel.Build(women, cfg.MinAge, cfg.MaxAge)
	if err != nil {
		fatal("expand panel", err)
	}
	log.Info(ctx, "expanded panel",
		logger.Int("women", len(women)),
		logger.Int("person_years", len(pp)))

	if err := colfile.WritePanel(cfg.PanelDir(), pp); err != nil {
		fatal("write panel columns", err)
	}
	if err := colfile.WriteWomen(cfg.WomenColsDir(), women); err != nil {
		fatal("write woman columns", err)
	}
	log.Info(ctx, "wrote column stores",
		logger.String("panel", cfg.PanelDir()),
		logger.String("women", cfg.WomenColsDir()))
}

// Command esrsplit compares the resonance-dip splittings of every idle sweep
// against every active sweep of a data folder.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HamletTheHamster/esr-splitting/internal/config"
	"github.com/HamletTheHamster/esr-splitting/internal/dataset"
	"github.com/HamletTheHamster/esr-splitting/internal/fit"
	"github.com/HamletTheHamster/esr-splitting/internal/logging"
	"github.com/HamletTheHamster/esr-splitting/internal/pipeline"
	"github.com/HamletTheHamster/esr-splitting/internal/render"
	"github.com/HamletTheHamster/esr-splitting/internal/report"
	"github.com/HamletTheHamster/esr-splitting/internal/splitting"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {

	cfg, err := config.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	start := time.Now()

	// Discovery failures leave no run folder behind
	set, err := dataset.Discover(cfg.DataDir, cfg.IdleDir, cfg.ActiveDir)
	if err != nil {
		console, lerr := logging.New(logging.WithLevel(cfg.LogLevel), logging.WithJSON(cfg.LogJSON))
		if lerr != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		console.Error("discovery failed", zap.String("data", cfg.DataDir), zap.Error(err))
		console.Sync()
		return 1
	}

	dir, err := report.RunDir(cfg.PlotDir, cfg.Note, start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := logging.New(
		logging.WithLevel(cfg.LogLevel),
		logging.WithJSON(cfg.LogJSON),
		logging.WithOutput(filepath.Join(dir, "run.log")),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	unit, _ := splitting.ParseUnit(cfg.Unit)

	sink, err := render.New(cfg.PlotBackend, dir, cfg.Slide, logger)
	if err != nil {
		logger.Error("plot backend", zap.Error(err))
		return 1
	}

	opts := []pipeline.Option{
		pipeline.WithSink(sink),
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(cfg.Workers),
	}

	if cfg.Fit {
		solver, err := fit.NewSolver(cfg.Solver)
		if err != nil {
			logger.Error("solver", zap.Error(err))
			return 1
		}
		opts = append(opts, pipeline.WithFitter(
			fit.NewFitter(solver, fit.WithMaxEvaluations(cfg.MaxEvaluations)),
		))
	}

	log := report.NewLog(os.Stdout)
	log.Header(report.Header{
		DataDir: cfg.DataDir,
		Note:    cfg.Note,
		Slide:   cfg.Slide,
		Fit:     cfg.Fit,
		Solver:  cfg.Solver,
		Unit:    string(unit),
		Idle:    len(set.Idle),
		Active:  len(set.Active),
	})

	opts = append(opts, pipeline.WithResultHook(log.Pair))

	params := pipeline.Params{
		Window:       cfg.Window,
		Order:        cfg.Order,
		ClipFraction: cfg.ClipFraction,
		Distance:     cfg.Distance,
		Keep:         cfg.Keep,
		Pixel:        cfg.Pixel,
		Axis:         cfg.Axis,
		Unit:         unit,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, runErr := pipeline.NewDriver(params, opts...).Run(ctx, set)

	log.Summary(results, time.Since(start))

	if err := report.WriteLog(dir, log.Lines()); err != nil {
		logger.Error("log.txt", zap.Error(err))
	}
	if err := report.WriteCSV(dir, results); err != nil {
		logger.Error("results.csv", zap.Error(err))
	}
	if cfg.Fit {
		if err := report.WriteParams(dir, results); err != nil {
			logger.Error("fit_params.csv", zap.Error(err))
		}
	}

	if runErr != nil {
		logger.Error("run interrupted", zap.Error(runErr))
		return 1
	}

	logger.Info("run complete", zap.String("dir", dir), zap.Int("pairs", len(results)))

	return 0
}

// Sweeps quoter parameters over a recorded capture and reports the best
// combinations.
//
// The grid file maps parameter names to candidate values:
//
//	base_spread: [0.01, 0.02, 0.04]
//	gamma_inv: [0.25, 0.5, 1.0]
//
// Usage:
//
//	go run ./cmd/gridsearch -config configs/config.yaml -data sim_data/btc-updown -grid grid.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"binary-mm-go/config"
	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/sim"
	"binary-mm-go/tuning"
)

func loadGrid(path string) (tuning.Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var grid tuning.Grid
	if err := yaml.Unmarshal(raw, &grid); err != nil {
		return nil, err
	}
	return grid, nil
}

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	dataDir := flag.String("data", "", "capture directory (overrides config)")
	gridPath := flag.String("grid", "grid.yaml", "parameter grid file")
	top := flag.Int("top", 5, "number of best trials to report")
	parallel := flag.Int("parallel", 0, "concurrent trials (0 = GOMAXPROCS)")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Close()

	dir := cfg.Sim.DataDir
	if *dataDir != "" {
		dir = *dataDir
	}
	if dir == "" {
		logg.Fatal("no capture directory; set -data or sim.dataDir")
	}

	data, err := sim.LoadDataDir(dir)
	if err != nil {
		logg.Fatal("load capture", zap.Error(err))
	}
	if len(data.Snapshots) == 0 {
		logg.Fatal("capture has no book snapshots", zap.String("dir", dir))
	}

	grid, err := loadGrid(*gridPath)
	if err != nil {
		logg.Fatal("load grid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searcher := tuning.NewSearcher(data.Snapshots, data.Fills, data.Oracle, logg)
	searcher.Base = cfg.Quoter
	searcher.ResolutionTimestamp = cfg.Sim.ResolutionTimestamp
	searcher.Parallelism = *parallel

	res, err := searcher.Search(ctx, grid)
	if err != nil {
		logg.Fatal("grid search failed", zap.Error(err))
	}

	logg.Info("grid search finished",
		zap.Int("combinations", res.Combinations),
		zap.String("data", dir))

	for i, trial := range res.TopN(*top, func(t tuning.Trial) float64 { return t.Summary.TotalPnL }) {
		logg.Info("trial",
			zap.Int("rank", i+1),
			zap.String("id", trial.ID),
			zap.Any("params", trial.Params),
			zap.Float64("total_pnl", trial.Summary.TotalPnL),
			zap.Float64("fill_rate_pct", trial.Summary.FillRate),
			zap.Float64("max_drawdown", trial.Summary.MaxDrawdown),
			zap.Float64("final_imbalance", trial.Summary.FinalImbalance))
	}

	if best, ok := res.BestByTotalPnL(); ok {
		out, err := yaml.Marshal(best.Params)
		if err == nil {
			logg.Info("best parameters as config snippet", zap.String("quoter", string(out)))
		}
	}
}

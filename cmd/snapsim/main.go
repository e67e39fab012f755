// Replays recorded book snapshots against the layered quoter and scores
// the run.
//
// Usage:
//
//	go run ./cmd/snapsim -config configs/config.yaml -data sim_data/btc-updown
package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"binary-mm-go/config"
	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/metrics"
	"binary-mm-go/sim"
	"binary-mm-go/strategy"
	"binary-mm-go/tuning"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	dataDir := flag.String("data", "", "capture directory (overrides config)")
	resolution := flag.Float64("resolution", 0, "resolution unix timestamp (0 = derive from data)")
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

	if cfg.Metrics.Enabled {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
		logg.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
	}

	engine := sim.NewSnapshotSim(logg)
	engine.DefaultMinutesToResolution = cfg.Sim.DefaultMinutesToResolution
	engine.ResolutionTimestamp = cfg.Sim.ResolutionTimestamp
	if *resolution != 0 {
		engine.ResolutionTimestamp = *resolution
	}

	res, err := engine.Run(strategy.NewQuoter(cfg.Quoter), data.Snapshots, data.Fills, data.Oracle)
	if err != nil {
		logg.Fatal("replay failed", zap.Error(err))
	}

	// Unmatched inventory is marked against the final snapshot's mids.
	upMid, downMid := 0.5, 0.5
	last := data.Snapshots[len(data.Snapshots)-1]
	if bid, ok := last.Up.BestBid(); ok {
		if ask, ok := last.Up.BestAsk(); ok {
			upMid = (bid + ask) / 2
		}
	}
	if bid, ok := last.Down.BestBid(); ok {
		if ask, ok := last.Down.BestAsk(); ok {
			downMid = (bid + ask) / 2
		}
	}
	summary := tuning.Summarize(res, upMid, downMid)

	logg.Info("snapshot replay summary",
		zap.Int("snapshots", len(data.Snapshots)),
		zap.Int("fills_matched", res.TotalFills),
		zap.Int("up_fills", res.UpFills),
		zap.Int("down_fills", res.DownFills),
		zap.Float64("total_volume", res.TotalVolume),
		zap.Float64("fill_rate_pct", summary.FillRate),
		zap.Float64("pnl_potential", res.FinalPnLPotential),
		zap.Float64("total_pnl", summary.TotalPnL),
		zap.Float64("max_drawdown", summary.MaxDrawdown),
		zap.Float64("final_imbalance", summary.FinalImbalance),
		zap.Float64("final_pairs", summary.FinalPairs))

	if summary.SharpeOK {
		logg.Info("sharpe", zap.Float64("annualized", summary.SharpeRatio))
	}
}

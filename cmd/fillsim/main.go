// Replays recorded fills against a quoting strategy.
//
// Usage:
//
//	go run ./cmd/fillsim -config configs/config.yaml -data sim_data/btc-updown
//	go run ./cmd/fillsim -data sim_data/btc-updown -baseline -offset 0.02
package main

import (
	"flag"
	"log"
	"path/filepath"

	"go.uber.org/zap"

	"binary-mm-go/config"
	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/metrics"
	"binary-mm-go/sim"
	"binary-mm-go/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	dataDir := flag.String("data", "", "capture directory (overrides config)")
	resolution := flag.Float64("resolution", 0, "resolution unix timestamp (0 = derive from data)")
	baseline := flag.Bool("baseline", false, "use the fixed-offset baseline quoter")
	offset := flag.Float64("offset", 0.02, "baseline quoter offset")
	size := flag.Float64("size", 50, "baseline quoter size")
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
	if data.Raw == nil {
		logg.Fatal("capture has no orderbooks_raw.json", zap.String("dir", dir))
	}

	rec, err := sim.NewReconstructor(*data.Raw)
	if err != nil {
		logg.Fatal("build reconstructor", zap.Error(err))
	}

	resolutionTS := *resolution
	if resolutionTS == 0 {
		resolutionTS = cfg.Sim.ResolutionTimestamp
	}
	if resolutionTS == 0 {
		resolutionTS = rec.FinalTimestamp() + 15*60
	}

	var quoter strategy.BookQuoter
	if *baseline {
		quoter = strategy.NewBaselineQuoter(*offset, *size)
		logg.Info("using baseline quoter",
			zap.Float64("offset", *offset),
			zap.Float64("size", *size))
	} else {
		quoter = strategy.NewTrackingQuoter(strategy.NewQuoter(cfg.Quoter), resolutionTS)
		logg.Info("using layered quoter", zap.Any("params", cfg.Quoter))
	}

	if cfg.Metrics.Enabled {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
		logg.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
	}

	engine := sim.NewFillSim(logg)
	res, err := engine.Run(quoter, rec, data.Fills, data.Oracle)
	if err != nil {
		logg.Fatal("replay failed", zap.Error(err))
	}

	logg.Info("fill replay summary",
		zap.String("data", filepath.Clean(dir)),
		zap.Int("fills_considered", res.TotalFillsConsidered),
		zap.Int("fills_matched", res.TotalFillsMatched),
		zap.Int("up_fills", res.UpFills),
		zap.Int("down_fills", res.DownFills),
		zap.Float64("total_volume", res.TotalVolume),
		zap.Float64("final_up_qty", res.FinalInventory.UpQty),
		zap.Float64("final_down_qty", res.FinalInventory.DownQty),
		zap.Float64("final_imbalance", res.FinalInventory.Imbalance()),
		zap.Float64("merged_pnl", res.FinalMergedPnL),
		zap.Float64("directional_pnl", res.FinalDirectionalPnL),
		zap.Float64("total_pnl", res.FinalTotalPnL))
}

// Records chainlink oracle prices from the live data feed into the
// oracle.json capture format the simulators replay.
//
// Usage:
//
//	go run ./cmd/oraclefeed -config configs/config.yaml -symbol btc/usd -slug btc-updown-15m-1768511700
//
// The threshold stamped into readings can be corrected while recording
// by editing the config file; the watcher picks it up live.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"binary-mm-go/config"
	"binary-mm-go/gateway"
	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/market"
)

// flushEvery bounds data loss to a handful of readings on a crash.
const flushEvery = 25

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	symbol := flag.String("symbol", "btc/usd", "oracle symbol")
	slug := flag.String("slug", "", "market slug for the fill subscription")
	out := flag.String("out", "", "output file (overrides config)")
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

	if cfg.Oracle.URL == "" {
		logg.Fatal("oracle.url is required")
	}
	outPath := cfg.Oracle.OutputFile
	if *out != "" {
		outPath = *out
	}

	feed := gateway.NewOracleFeed(cfg.Oracle.URL, *symbol, *slug, cfg.Oracle.Threshold, logg)
	if cfg.Oracle.ReconnectSeconds > 0 {
		feed.ReconnectWait = time.Duration(cfg.Oracle.ReconnectSeconds) * time.Second
	}
	recorder := gateway.NewRecorder(outPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := config.NewWatcher(*cfgPath, config.DefaultWatchConfig(), logg)
	if err != nil {
		logg.Fatal("create config watcher", zap.Error(err))
	}
	watcher.OnReload(func(next config.AppConfig) error {
		feed.SetThreshold(next.Oracle.Threshold)
		logg.Info("threshold updated", zap.Float64("threshold", next.Oracle.Threshold))
		return nil
	})
	if err := watcher.Start(ctx); err != nil {
		logg.Fatal("start config watcher", zap.Error(err))
	}
	defer watcher.Stop()

	readings := make(chan market.OracleReading, 64)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return feed.Run(ctx, readings)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case reading := <-readings:
				recorder.Append(reading)
				logg.Debug("oracle reading",
					zap.Float64("price", reading.Price),
					zap.Float64("threshold", reading.Threshold),
					zap.Float64("timestamp", reading.Timestamp))
				if recorder.Len()%flushEvery == 0 {
					if err := recorder.Flush(); err != nil {
						return err
					}
				}
			}
		}
	})

	err = g.Wait()
	if flushErr := recorder.Flush(); flushErr != nil {
		logg.Error("final flush failed", zap.Error(flushErr))
	}
	logg.Info("recording stopped",
		zap.Int("readings", recorder.Len()),
		zap.String("out", outPath),
		zap.Error(err))
}

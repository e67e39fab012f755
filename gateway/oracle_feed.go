package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/market"
)

// pingInterval keeps the feed connection alive.
const pingInterval = 8 * time.Second

// OracleFeed streams chainlink price updates for one symbol over the
// live data websocket and emits them as oracle readings.
type OracleFeed struct {
	URL    string
	Symbol string // e.g. "btc/usd"
	Slug   string // market slug for the fill subscription

	Dialer        *websocket.Dialer
	ReconnectWait time.Duration

	mu        sync.RWMutex
	threshold float64

	log *logger.Logger
}

// NewOracleFeed creates a feed client. A nil log discards output.
func NewOracleFeed(url, symbol, slug string, threshold float64, log *logger.Logger) *OracleFeed {
	if log == nil {
		log = logger.Nop()
	}
	return &OracleFeed{
		URL:           url,
		Symbol:        symbol,
		Slug:          slug,
		threshold:     threshold,
		Dialer:        websocket.DefaultDialer,
		ReconnectWait: 5 * time.Second,
		log:           log,
	}
}

// SetThreshold swaps the threshold stamped into subsequent readings.
// The feed only reports the live price, so a corrected threshold (say,
// once the market's open price is known) applies from here on.
func (f *OracleFeed) SetThreshold(threshold float64) {
	f.mu.Lock()
	f.threshold = threshold
	f.mu.Unlock()
}

// Threshold returns the threshold currently stamped into readings.
func (f *OracleFeed) Threshold() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.threshold
}

// Run connects, subscribes, and forwards oracle readings to out until
// ctx is done. Connection errors trigger a reconnect after
// ReconnectWait. The channel is not closed on return.
func (f *OracleFeed) Run(ctx context.Context, out chan<- market.OracleReading) error {
	if f.URL == "" {
		return fmt.Errorf("oracle feed: url required")
	}

	for {
		if err := f.runOnce(ctx, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn("oracle feed disconnected, reconnecting",
				zap.Error(err),
				zap.Duration("wait", f.ReconnectWait))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.ReconnectWait):
		}
	}
}

func (f *OracleFeed) runOnce(ctx context.Context, out chan<- market.OracleReading) error {
	conn, _, err := f.Dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.URL, err)
	}
	defer conn.Close()

	sub, err := SubscribeMessage(f.Slug, f.Symbol)
	if err != nil {
		return fmt.Errorf("build subscribe message: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	f.log.Info("oracle feed connected",
		zap.String("url", f.URL),
		zap.String("symbol", f.Symbol))

	// Reader goroutine feeds messages; the select loop handles pings
	// and cancellation.
	msgs := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case raw := <-msgs:
			reading, ok, err := ParseOracleUpdate(raw, f.Threshold())
			if err != nil {
				f.log.Warn("bad feed message", zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			select {
			case out <- reading:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Recorder accumulates oracle readings and persists them in the
// oracle.json capture format the loaders read back.
type Recorder struct {
	Path     string
	readings []market.OracleReading
}

// NewRecorder writes to path on each Flush.
func NewRecorder(path string) *Recorder {
	return &Recorder{Path: path}
}

// Append adds a reading to the capture.
func (r *Recorder) Append(reading market.OracleReading) {
	r.readings = append(r.readings, reading)
}

// Len is the number of readings captured so far.
func (r *Recorder) Len() int { return len(r.readings) }

// Flush writes the capture to disk, replacing any previous contents.
func (r *Recorder) Flush() error {
	data, err := json.MarshalIndent(r.readings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode oracle capture: %w", err)
	}
	if err := os.WriteFile(r.Path, data, 0o644); err != nil {
		return fmt.Errorf("write oracle capture: %w", err)
	}
	return nil
}

// Package metrics provides Prometheus metrics for the quoting engine and
// the replay simulators.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QuotesGenerated counts accepted quotes by side (up/down).
	QuotesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_quotes_generated_total",
		Help: "Quotes generated, by outcome side",
	}, []string{"side"})

	// QuotesSkipped counts quotes rejected by the edge check, by side.
	QuotesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_quotes_skipped_total",
		Help: "Quotes skipped by the edge check, by outcome side",
	}, []string{"side"})

	// FillsMatched counts simulated fills matched against our bids.
	FillsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mm_sim_fills_matched_total",
		Help: "Simulated fills matched against our quotes, by outcome side",
	}, []string{"side"})

	// MatchedVolume accumulates matched fill size across simulations.
	MatchedVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mm_sim_matched_volume_total",
		Help: "Total matched volume across simulation runs",
	})

	// InventoryImbalance is the current simulation inventory imbalance q.
	InventoryImbalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_inventory_imbalance",
		Help: "Inventory imbalance (up-down)/(up+down) of the running simulation",
	})

	// MergedPnL is the latest merged (pair) PnL of the running simulation.
	MergedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_sim_merged_pnl",
		Help: "Merged PnL from balanced pairs",
	})

	// DirectionalPnL is the latest mark-to-market PnL on excess inventory.
	DirectionalPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mm_sim_directional_pnl",
		Help: "Directional PnL on unmatched inventory",
	})
)

// IncrementQuoteGenerated records an accepted quote for a side.
func IncrementQuoteGenerated(side string) {
	QuotesGenerated.WithLabelValues(side).Inc()
}

// IncrementQuoteSkipped records an edge-check rejection for a side.
func IncrementQuoteSkipped(side string) {
	QuotesSkipped.WithLabelValues(side).Inc()
}

// RecordMatch records a matched simulated fill.
func RecordMatch(side string, size float64) {
	FillsMatched.WithLabelValues(side).Inc()
	MatchedVolume.Add(size)
}

// UpdatePositionMetrics publishes the current position gauges.
func UpdatePositionMetrics(imbalance, mergedPnL, directionalPnL float64) {
	InventoryImbalance.Set(imbalance)
	MergedPnL.Set(mergedPnL)
	DirectionalPnL.Set(directionalPnL)
}

// StartMetricsServer exposes /metrics on addr in the background.
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}

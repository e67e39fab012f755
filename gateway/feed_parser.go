// Package gateway connects to the live data feeds and turns their wire
// messages into domain types: oracle price updates and matched orders
// for the capture files the simulators replay.
package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"binary-mm-go/market"
)

const (
	topicActivity = "activity"
	topicOracle   = "crypto_prices_chainlink"

	typeOrdersMatched = "orders_matched"
	typeUpdate        = "update"
)

// FeedMessage is the envelope of the live data stream.
type FeedMessage struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribeMessage builds the subscription for both fill activity on a
// market slug and chainlink price updates for a symbol like "btc/usd".
func SubscribeMessage(slug, symbol string) ([]byte, error) {
	fillsFilter, err := json.Marshal(map[string]string{"event_slug": slug})
	if err != nil {
		return nil, err
	}
	oracleFilter, err := json.Marshal(map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}

	msg := map[string]interface{}{
		"action": "subscribe",
		"subscriptions": []map[string]string{
			{"topic": topicActivity, "type": typeOrdersMatched, "filters": string(fillsFilter)},
			{"topic": topicOracle, "type": typeUpdate, "filters": string(oracleFilter)},
		},
	}
	return json.Marshal(msg)
}

type oraclePayload struct {
	Value     float64 `json:"value"`
	Timestamp float64 `json:"timestamp"`
}

// ParseOracleUpdate extracts an oracle reading from a raw feed message.
// ok is false for messages of other topics. The feed reports the live
// price only; the market's threshold is stamped in by the caller.
func ParseOracleUpdate(raw []byte, threshold float64) (reading market.OracleReading, ok bool, err error) {
	var msg FeedMessage
	if err = json.Unmarshal(raw, &msg); err != nil {
		return reading, false, fmt.Errorf("parse feed envelope: %w", err)
	}
	if msg.Topic != topicOracle || msg.Type != typeUpdate || len(msg.Payload) == 0 {
		return reading, false, nil
	}

	var payload oraclePayload
	if err = json.Unmarshal(msg.Payload, &payload); err != nil {
		return reading, false, fmt.Errorf("parse oracle payload: %w", err)
	}

	return market.OracleReading{
		Price:     payload.Value,
		Threshold: threshold,
		Timestamp: normalizeTimestamp(payload.Timestamp),
	}, true, nil
}

type fillPayload struct {
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      string  `json:"side"`
	Timestamp float64 `json:"timestamp"`
	Outcome   string  `json:"outcome"`
}

// ParseMatchedOrder extracts a market fill from a raw feed message. ok
// is false for messages of other topics.
func ParseMatchedOrder(raw []byte) (fill market.Fill, ok bool, err error) {
	var msg FeedMessage
	if err = json.Unmarshal(raw, &msg); err != nil {
		return fill, false, fmt.Errorf("parse feed envelope: %w", err)
	}
	if msg.Topic != topicActivity || msg.Type != typeOrdersMatched || len(msg.Payload) == 0 {
		return fill, false, nil
	}

	var payload fillPayload
	if err = json.Unmarshal(msg.Payload, &payload); err != nil {
		return fill, false, fmt.Errorf("parse fill payload: %w", err)
	}

	fill = market.Fill{
		Price:     payload.Price,
		Size:      payload.Size,
		Side:      market.Side(strings.ToLower(payload.Side)),
		Timestamp: normalizeTimestamp(payload.Timestamp),
		Outcome:   market.Outcome(strings.ToLower(payload.Outcome)),
	}
	if fill.Side != market.SideBuy && fill.Side != market.SideSell {
		return fill, false, fmt.Errorf("unknown fill side %q", payload.Side)
	}
	if fill.Outcome != market.OutcomeUp && fill.Outcome != market.OutcomeDown {
		return fill, false, fmt.Errorf("unknown fill outcome %q", payload.Outcome)
	}
	return fill, true, nil
}

// normalizeTimestamp converts millisecond timestamps to seconds so a
// capture is internally consistent; the feed mixes both units across
// topics.
func normalizeTimestamp(ts float64) float64 {
	if ts >= 1e12 {
		return ts / 1000
	}
	return ts
}

package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"binary-mm-go/market"
)

// LoadSnapshots reads pre-materialized book snapshots from JSON and
// returns them sorted by timestamp.
func LoadSnapshots(path string) ([]market.BookSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	var snapshots []market.BookSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("parse snapshots %s: %w", path, err)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp < snapshots[j].Timestamp
	})
	return snapshots, nil
}

// LoadFills reads fills from JSON, validates side and outcome, and
// returns them sorted by timestamp.
func LoadFills(path string) ([]market.Fill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fills: %w", err)
	}

	var fills []market.Fill
	if err := json.Unmarshal(data, &fills); err != nil {
		return nil, fmt.Errorf("parse fills %s: %w", path, err)
	}

	for i, f := range fills {
		if f.Side != market.SideBuy && f.Side != market.SideSell {
			return nil, fmt.Errorf("fills[%d]: unknown side %q", i, f.Side)
		}
		if f.Outcome != market.OutcomeUp && f.Outcome != market.OutcomeDown {
			return nil, fmt.Errorf("fills[%d]: unknown outcome %q", i, f.Outcome)
		}
	}

	sort.SliceStable(fills, func(i, j int) bool {
		return fills[i].Timestamp < fills[j].Timestamp
	})
	return fills, nil
}

// LoadOracle reads oracle readings from JSON and returns them sorted by
// timestamp.
func LoadOracle(path string) ([]market.OracleReading, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oracle: %w", err)
	}

	var readings []market.OracleReading
	if err := json.Unmarshal(data, &readings); err != nil {
		return nil, fmt.Errorf("parse oracle %s: %w", path, err)
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp < readings[j].Timestamp
	})
	return readings, nil
}

// LoadRawBook reads the orderbooks_raw.json capture format.
func LoadRawBook(path string) (RawBookData, error) {
	var raw RawBookData

	data, err := os.ReadFile(path)
	if err != nil {
		return raw, fmt.Errorf("read raw book: %w", err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("parse raw book %s: %w", path, err)
	}
	return raw, nil
}

// LoadReconstructor reads a raw capture and builds a reconstructor over
// it.
func LoadReconstructor(path string) (*Reconstructor, error) {
	raw, err := LoadRawBook(path)
	if err != nil {
		return nil, err
	}
	return NewReconstructor(raw)
}

// SimData bundles everything a replay needs from one capture directory.
type SimData struct {
	Snapshots []market.BookSnapshot
	Fills     []market.Fill
	Oracle    []market.OracleReading

	// Raw is the un-materialized capture for the fill engine; nil when
	// the directory holds no orderbooks_raw.json.
	Raw *RawBookData
}

// LoadDataDir loads a recorder capture directory: fills.json,
// oracle.json, and orderbooks_raw.json. Missing files yield empty
// slices; a present but malformed file is an error.
func LoadDataDir(dir string) (*SimData, error) {
	out := &SimData{}

	fillsPath := filepath.Join(dir, "fills.json")
	if _, err := os.Stat(fillsPath); err == nil {
		fills, err := LoadFills(fillsPath)
		if err != nil {
			return nil, err
		}
		out.Fills = fills
	}

	oraclePath := filepath.Join(dir, "oracle.json")
	if _, err := os.Stat(oraclePath); err == nil {
		oracle, err := LoadOracle(oraclePath)
		if err != nil {
			return nil, err
		}
		out.Oracle = oracle
	}

	rawPath := filepath.Join(dir, "orderbooks_raw.json")
	if _, err := os.Stat(rawPath); err == nil {
		raw, err := LoadRawBook(rawPath)
		if err != nil {
			return nil, err
		}
		out.Raw = &raw

		snapshots, err := SnapshotsFromRaw(raw)
		if err != nil {
			return nil, err
		}
		out.Snapshots = snapshots
	}

	return out, nil
}

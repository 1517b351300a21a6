package domain

import (
	"bytes"
	"math"
	"sort"

	"github.com/goccy/go-json"
)

// DefaultTopN is how many municipalities the ranking keeps.
const DefaultTopN = 10

// RankEntry is one bar of the municipality comparison chart.
type RankEntry struct {
	Municipality string  `json:"municipio"`
	Mean         float64 `json:"promedio"`
}

// UnmarshalJSON accepts the backend's comparison row in any of its shapes
// ("municipio"/"Municipio"/"municipality", "promedio"/"mean") and coerces the
// mean to a number, 0 when it is not one.
func (e *RankEntry) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*e = RankEntry{}
	for _, key := range []string{"municipio", "Municipio", "municipality"} {
		if name := rawString(fields[key]); name != "" {
			e.Municipality = name
			break
		}
	}
	for _, key := range []string{"promedio", "mean"} {
		if raw, ok := fields[key]; ok {
			e.Mean = coerceNumber(raw)
			break
		}
	}
	return nil
}

// coerceNumber converts a JSON value to a float the way a lenient numeric
// cast would: numbers and numeric strings pass, everything else is 0.
func coerceNumber(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("true")) {
		return 1
	}
	return parseReadingJSON(raw).OrZero()
}

// RankOptions tunes RankRecords.
type RankOptions struct {
	// Top truncates the ranking; <= 0 means DefaultTopN.
	Top int
	// SkipMissing excludes missing readings from the average instead of
	// counting them as zero.
	SkipMissing bool
}

// RankPreAggregated passes backend-computed means through unchanged apart
// from numeric coercion of NaN/Inf to zero.
func RankPreAggregated(entries []RankEntry) []RankEntry {
	out := make([]RankEntry, len(entries))
	for i, e := range entries {
		if math.IsNaN(e.Mean) || math.IsInf(e.Mean, 0) {
			e.Mean = 0
		}
		out[i] = e
	}
	return out
}

// RankRecords averages metric per municipality, sorts descending by mean and
// keeps the top entries. Equal means keep first-encounter order.
func RankRecords(records []Record, metric Metric, opts RankOptions) []RankEntry {
	type acc struct {
		total float64
		count int
	}

	order := make([]string, 0)
	stats := make(map[string]*acc)
	for _, rec := range records {
		a, ok := stats[rec.Municipality]
		if !ok {
			a = &acc{}
			stats[rec.Municipality] = a
			order = append(order, rec.Municipality)
		}
		v := rec.Value(metric)
		if !v.Valid && opts.SkipMissing {
			continue
		}
		a.total += v.OrZero()
		a.count++
	}

	out := make([]RankEntry, 0, len(order))
	for _, name := range order {
		a := stats[name]
		mean := 0.0
		if a.count > 0 {
			mean = a.total / float64(a.count)
		}
		out = append(out, RankEntry{Municipality: name, Mean: mean})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })

	top := opts.Top
	if top <= 0 {
		top = DefaultTopN
	}
	if len(out) > top {
		out = out[:top]
	}
	return out
}

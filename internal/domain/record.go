package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const dayLayout = "2006-01-02"

// Reading is a metric value that may be missing. The zero value is the
// missing marker.
type Reading struct {
	Float64 float64
	Valid   bool
}

// Value wraps a measured number.
func Value(v float64) Reading {
	return Reading{Float64: v, Valid: true}
}

// OrZero returns the value, or 0 when missing.
func (r Reading) OrZero() float64 {
	if !r.Valid {
		return 0
	}
	return r.Float64
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Float64)
}

// UnmarshalJSON never fails: anything that is not a finite number decodes
// to the missing marker.
func (r *Reading) UnmarshalJSON(data []byte) error {
	*r = parseReadingJSON(data)
	return nil
}

func parseReadingJSON(data []byte) Reading {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Reading{}
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Reading{}
		}
		return ParseReading(s)
	}
	return ParseReading(string(data))
}

// ParseReading parses a textual metric value. Empty, non-numeric, NaN and
// infinite inputs yield the missing marker.
func ParseReading(s string) Reading {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reading{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Reading{}
	}
	return Value(v)
}

// Record is one municipality's readings for one date.
type Record struct {
	Date         string
	Municipality string
	Values       map[Metric]Reading
}

// Value returns the reading for m, missing if absent.
func (r Record) Value(m Metric) Reading {
	return r.Values[m]
}

// Day returns the record date truncated to the calendar day.
func (r Record) Day() string {
	return TruncateDate(r.Date)
}

// Time parses the record's calendar day.
func (r Record) Time() (time.Time, bool) {
	return ParseDay(r.Date)
}

// TruncateDate drops any time-of-day suffix from a date string.
func TruncateDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i >= 0 {
		return s[:i]
	}
	return s
}

// ParseDay parses the calendar day of s, ignoring any time-of-day suffix.
func ParseDay(s string) (time.Time, bool) {
	day := TruncateDate(s)
	if day == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// UnmarshalJSON decodes the backend's flat row format.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	*r = Record{
		Date:         rawString(fields["Fecha"]),
		Municipality: rawString(fields["Municipio"]),
	}
	if r.Municipality == "" {
		r.Municipality = rawString(fields["municipio"])
	}

	for _, info := range Metrics {
		raw, ok := fields[string(info.Metric)]
		if !ok {
			continue
		}
		if r.Values == nil {
			r.Values = make(map[Metric]Reading, len(Metrics))
		}
		r.Values[info.Metric] = parseReadingJSON(raw)
	}
	return nil
}

// MarshalJSON encodes the record in the backend's flat row format.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+2)
	out["Fecha"] = r.Date
	out["Municipio"] = r.Municipality
	for m, v := range r.Values {
		out[string(m)] = v
	}
	return json.Marshal(out)
}

// rawString returns the string held by a JSON value, or "" for null and
// non-string values.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

package domain

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// seriesColors is the palette assigned to municipalities in order of first
// appearance.
var seriesColors = []string{
	"#667eea", "#764ba2", "#e74c3c", "#2ecc71", "#f39c12",
	"#3498db", "#9b59b6", "#e67e22", "#1abc9c", "#c0392b",
	"#16a085", "#d35400", "#2980b9", "#8e44ad", "#27ae60",
}

// SeriesColor returns the palette colour for the i-th series.
func SeriesColor(i int) string {
	return seriesColors[i%len(seriesColors)]
}

// Point is one sample of a single-municipality series.
type Point struct {
	Date  string  `json:"fecha"`
	Value Reading `json:"valor"`
}

// PivotRow holds one date and a reading per municipality.
type PivotRow struct {
	Date   string
	Values map[string]Reading
}

const (
	dateKey          = "fecha"
	escapedKeyPrefix = "municipio:"
)

// SeriesKey is the column name a municipality gets in a marshalled pivot row.
// Names are used as-is unless they are "fecha" or already carry the
// "municipio:" prefix; those are prefixed so every column stays distinct
// from the date column and from each other.
func SeriesKey(name string) string {
	if name == dateKey || strings.HasPrefix(name, escapedKeyPrefix) {
		return escapedKeyPrefix + name
	}
	return name
}

// MarshalJSON flattens the row into {"fecha": ..., SeriesKey(municipality): value}.
func (r PivotRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		out[SeriesKey(k)] = v
	}
	out[dateKey] = r.Date
	return json.Marshal(out)
}

// Pivot is a multi-series table: one row per date, one column per
// municipality.
type Pivot struct {
	Rows           []PivotRow `json:"rows"`
	Municipalities []string   `json:"municipalities"`
}

// PivotByMunicipality reshapes records into one row per distinct day with one
// column per municipality holding the metric's reading. Rows are ascending by
// day. When a (day, municipality) pair repeats, the later record wins.
func PivotByMunicipality(records []Record, metric Metric) Pivot {
	byDay := make(map[string]*PivotRow)
	for _, rec := range records {
		day := rec.Day()
		if day == "" {
			continue
		}
		row, ok := byDay[day]
		if !ok {
			row = &PivotRow{Date: day, Values: make(map[string]Reading)}
			byDay[day] = row
		}
		row.Values[rec.Municipality] = rec.Value(metric)
	}

	rows := make([]PivotRow, 0, len(byDay))
	for _, row := range byDay {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	return Pivot{Rows: rows, Municipalities: DistinctMunicipalities(records)}
}

// SingleSeries returns (day, reading) pairs sorted ascending by day. Records
// sharing a day keep their input order; records without a day are skipped.
func SingleSeries(records []Record, metric Metric) []Point {
	points := make([]Point, 0, len(records))
	for _, rec := range records {
		day := rec.Day()
		if day == "" {
			continue
		}
		points = append(points, Point{Date: day, Value: rec.Value(metric)})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// DistinctMunicipalities lists municipality names in order of first
// appearance, skipping empty names.
func DistinctMunicipalities(records []Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range records {
		if rec.Municipality == "" {
			continue
		}
		if _, ok := seen[rec.Municipality]; ok {
			continue
		}
		seen[rec.Municipality] = struct{}{}
		out = append(out, rec.Municipality)
	}
	return out
}

// SeriesMeta describes one line of a chart.
type SeriesMeta struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// LineChart is everything a renderer needs to draw one metric.
type LineChart struct {
	Metric   Metric       `json:"metric"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Multi    bool         `json:"multi"`
	Series   []SeriesMeta `json:"series"`
	Rows     []PivotRow   `json:"rows,omitempty"`
	Points   []Point      `json:"points,omitempty"`
}

// Empty reports whether the chart has nothing to plot.
func (c LineChart) Empty() bool {
	return len(c.Rows) == 0 && len(c.Points) == 0
}

// BuildLineCharts produces one chart per selected metric. With more than one
// selected municipality each chart is pivoted into one series per
// municipality; otherwise it is a single series.
func BuildLineCharts(records []Record, sel Selection) []LineChart {
	metrics := sel.Metrics
	if len(metrics) == 0 {
		metrics = []Metric{DefaultMetric}
	}
	multi := len(sel.Municipalities) > 1

	var subtitle string
	if multi {
		subtitle = "Municipios: " + strings.Join(sel.Municipalities, ", ")
	}

	charts := make([]LineChart, 0, len(metrics))
	for _, m := range metrics {
		chart := LineChart{Metric: m, Title: m.Label(), Subtitle: subtitle, Multi: multi}
		if multi {
			pivot := PivotByMunicipality(records, m)
			chart.Rows = pivot.Rows
			for i, name := range pivot.Municipalities {
				chart.Series = append(chart.Series, SeriesMeta{Key: SeriesKey(name), Name: name, Color: SeriesColor(i)})
			}
		} else {
			chart.Points = SingleSeries(records, m)
			chart.Series = []SeriesMeta{{Key: "valor", Name: m.Label(), Color: SeriesColor(0)}}
		}
		charts = append(charts, chart)
	}
	return charts
}

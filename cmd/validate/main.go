// Command validate checks a JSON record fixture against the invariants the
// dashboard's view models rely on: date filtering, slider bounds, pivot shape,
// distribution bands and ranking order. It runs every derivation the HTTP
// API serves over the fixture and reports pass/fail per phase.
//
// Usage:
//
//	go run ./cmd/validate -json data/mock/radiance_records.json
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/goccy/go-json"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixture := flag.String("json", "", "path to the JSON record fixture")
	metricName := flag.String("metric", string(domain.DefaultMetric), "metric to validate")
	moves := flag.Int("slider-moves", 200, "random slider moves to replay")
	flag.Parse()

	if *fixture == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(*fixture, *metricName, *moves))
}

func run(path, metricName string, moves int) int {
	metric, ok := domain.ParseMetric(metricName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown metric %q\n", metricName)
		return 2
	}

	records, err := loadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	phases := []*phase{
		validateRecords(records),
		validateFilter(records),
		validateSlider(records, moves),
		validatePivot(records, metric),
		validateDistribution(records, metric),
		validateRanking(records, metric),
	}

	fmt.Println("=== Fixture Validation ===")
	fmt.Println()

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d, municipalities: %d, dates: %d\n",
		len(records), len(domain.DistinctMunicipalities(records)), len(domain.DistinctDates(records)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFixture(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ── Phases ──

func validateRecords(records []domain.Record) *phase {
	p := &phase{name: "Record fields"}
	if len(records) == 0 {
		p.errorf("fixture has no records")
	}
	for i, rec := range records {
		if rec.Municipality == "" {
			p.errorf("record %d: empty Municipio", i)
		}
		if _, ok := rec.Time(); !ok {
			p.errorf("record %d: unparseable Fecha %q", i, rec.Date)
		}
	}
	return p
}

func validateFilter(records []domain.Record) *phase {
	p := &phase{name: "Date-range filter"}
	dates := domain.DistinctDates(records)
	if len(dates) == 0 {
		return p
	}

	if got := domain.FilterByDateRange(records, nil); len(got) != len(records) {
		p.errorf("nil range: got %d records, want %d", len(got), len(records))
	}

	rng := domain.DateRange{Start: dates[len(dates)/4], End: dates[len(dates)*3/4]}
	got := domain.FilterByDateRange(records, &rng)
	next := 0
	for _, rec := range got {
		day := rec.Day()
		if day < rng.Start || day > rng.End {
			p.errorf("record %s/%s outside [%s, %s]", rec.Municipality, day, rng.Start, rng.End)
		}
		// Output must be a subsequence of the input.
		for next < len(records) && !sameRecord(records[next], rec) {
			next++
		}
		if next == len(records) {
			p.errorf("record %s/%s out of input order", rec.Municipality, day)
			break
		}
		next++
	}
	return p
}

func validateSlider(records []domain.Record, moves int) *phase {
	p := &phase{name: "Slider bounds"}
	dates := domain.DistinctDates(records)

	var last domain.DateRange
	slider := domain.NewSlider(func(r domain.DateRange) { last = r })
	slider.SetDates(dates)
	if slider.Empty() {
		return p
	}

	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // deterministic replay
	n := len(dates)
	for i := range moves {
		proposed := rng.IntN(n+4) - 2
		if i%2 == 0 {
			slider.MoveLow(proposed)
		} else {
			slider.MoveHigh(proposed)
		}
		low, high := slider.Indices()
		if low < 0 || high > n-1 || low > high {
			p.errorf("move %d (%d): indices (%d, %d) out of order for %d dates", i, proposed, low, high, n)
			continue
		}
		if last.Start != dates[low] || last.End != dates[high] {
			p.errorf("move %d: emitted %v, want [%s, %s]", i, last, dates[low], dates[high])
		}
	}
	return p
}

func validatePivot(records []domain.Record, metric domain.Metric) *phase {
	p := &phase{name: "Multi-series pivot"}
	pivot := domain.PivotByMunicipality(records, metric)
	dates := domain.DistinctDates(records)

	if len(pivot.Rows) != len(dates) {
		p.errorf("rows: got %d, want %d distinct dates", len(pivot.Rows), len(dates))
	}
	for i, row := range pivot.Rows {
		if i < len(dates) && row.Date != dates[i] {
			p.errorf("row %d: date %s, want %s", i, row.Date, dates[i])
		}
	}

	// Last record per (date, municipality) must land in its cell.
	want := map[string]domain.Reading{}
	for _, rec := range records {
		want[rec.Day()+"|"+rec.Municipality] = rec.Value(metric)
	}
	for _, row := range pivot.Rows {
		for name, got := range row.Values {
			if w := want[row.Date+"|"+name]; w != got {
				p.errorf("cell %s/%s: got %v, want %v", row.Date, name, got, w)
			}
		}
	}
	return p
}

func validateDistribution(records []domain.Record, metric domain.Metric) *phase {
	p := &phase{name: "Distribution bands"}
	bands := domain.Distribution(records, metric)

	positive := 0
	for _, rec := range records {
		if rec.Value(metric).OrZero() > 0 {
			positive++
		}
	}

	total := 0
	for _, b := range bands {
		if b.Count <= 0 {
			p.errorf("band %q has non-positive count %d", b.Name, b.Count)
		}
		total += b.Count
	}
	if total != positive {
		p.errorf("band counts sum to %d, want %d positive readings", total, positive)
	}
	if len(bands) > 3 {
		p.errorf("got %d bands, want at most 3", len(bands))
	}
	return p
}

func validateRanking(records []domain.Record, metric domain.Metric) *phase {
	p := &phase{name: "Municipality ranking"}
	ranking := domain.RankRecords(records, metric, domain.RankOptions{})

	if want := min(len(domain.DistinctMunicipalities(records)), domain.DefaultTopN); len(ranking) != want {
		p.errorf("entries: got %d, want %d", len(ranking), want)
	}
	for i, e := range ranking {
		if math.IsNaN(e.Mean) || math.IsInf(e.Mean, 0) {
			p.errorf("%s: non-finite mean", e.Municipality)
		}
		if i > 0 && ranking[i-1].Mean < e.Mean {
			p.errorf("entry %d (%s %.4f) ranks above %s %.4f", i, e.Municipality, e.Mean, ranking[i-1].Municipality, ranking[i-1].Mean)
		}
	}
	return p
}

func sameRecord(a, b domain.Record) bool {
	return a.Date == b.Date && a.Municipality == b.Municipality
}

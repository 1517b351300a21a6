// Command genmock reads one or more backend CSV exports and writes a JSON
// record fixture in the backend's row format, the same shape the
// /municipio endpoint returns. It uses the domain CSV reader so the fixture
// matches what the dashboard would decode.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/datos_radianza.csv \
//	  -out data/mock/radiance_records.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/goccy/go-json"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPaths := flag.String("csv", "", "comma-separated list of CSV exports")
	out := flag.String("out", "", "output path for the JSON record fixture")
	flag.Parse()

	if *csvPaths == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out")
	}

	var records []domain.Record //nolint:prealloc // size depends on CSV file contents
	for _, path := range strings.Split(*csvPaths, ",") {
		path = strings.TrimSpace(path)
		recs, err := readExport(path)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
		records = append(records, recs...)
		log.Printf("%s: %d records", filepath.Base(path), len(recs))
	}

	log.Printf("total: %d records", len(records))

	if err := writeJSON(*out, records); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(records)
	return nil
}

func readExport(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	records, err := domain.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows")
	}
	return records, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.Record) {
	summary := domain.Summarize(records)

	fmt.Println()
	fmt.Println("=== Fixture Summary ===")
	fmt.Printf("Records:         %d\n", summary.TotalRecords)
	fmt.Printf("Municipalities:  %d\n", summary.TotalMunicipalities)
	fmt.Printf("Date span:       %s .. %s\n", summary.DateMin, summary.DateMax)
	fmt.Printf("Mean radiance:   %.2f\n", summary.MeanRadiance)
	fmt.Printf("Max radiance:    %.2f\n", summary.MaxRadiance)

	perMuni := map[string]int{}
	for _, rec := range records {
		perMuni[rec.Municipality]++
	}
	names := make([]string, 0, len(perMuni))
	for name := range perMuni {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	fmt.Println("Per municipality:")
	for _, name := range names {
		fmt.Printf("  %-30s %d\n", name, perMuni[name])
	}

	fmt.Println()
	fmt.Println("Missing readings:")
	for _, info := range domain.Metrics {
		missing := 0
		for _, rec := range records {
			if !rec.Value(info.Metric).Valid {
				missing++
			}
		}
		fmt.Printf("  %-34s %d\n", info.Metric, missing)
	}
}

package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses a backend export. The header must contain Fecha and
// Municipio; metric columns are optional and unknown columns are ignored.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read csv: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	dateCol, ok := colIdx["Fecha"]
	if !ok {
		return nil, errors.New("read csv: missing Fecha column")
	}
	muniCol, ok := colIdx["Municipio"]
	if !ok {
		return nil, errors.New("read csv: missing Municipio column")
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		rec := Record{
			Date:         field(row, dateCol),
			Municipality: field(row, muniCol),
			Values:       make(map[Metric]Reading, len(Metrics)),
		}
		for _, info := range Metrics {
			if i, ok := colIdx[string(info.Metric)]; ok {
				rec.Values[info.Metric] = ParseReading(field(row, i))
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

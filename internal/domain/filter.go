package domain

// DateRange is an inclusive range of calendar days ("YYYY-MM-DD").
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FilterByDateRange returns the records whose day falls within rng, keeping
// their relative order. A nil range returns records unchanged. Records whose
// date cannot be parsed are dropped.
func FilterByDateRange(records []Record, rng *DateRange) []Record {
	if rng == nil || len(records) == 0 {
		return records
	}

	start, okStart := ParseDay(rng.Start)
	end, okEnd := ParseDay(rng.End)

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		if okStart && t.Before(start) {
			continue
		}
		if okEnd && t.After(end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

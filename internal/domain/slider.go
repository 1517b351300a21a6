package domain

import "sort"

// NoDatesText is shown in place of the slider when there are no dates.
const NoDatesText = "No hay fechas disponibles"

// DistinctDates returns the sorted, de-duplicated calendar days present in
// records. Records without a date are ignored.
func DistinctDates(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	dates := make([]string, 0)
	for _, rec := range records {
		day := rec.Day()
		if day == "" {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sort.Strings(dates)
	return dates
}

// Slider holds two handles (low, high) over a sorted list of distinct dates.
// After any single update 0 <= low <= high <= len(dates)-1 holds.
type Slider struct {
	dates    []string
	low      int
	high     int
	onChange func(DateRange)
}

// NewSlider creates an empty slider. onChange, if non-nil, receives the
// selected date pair every time the handles move.
func NewSlider(onChange func(DateRange)) *Slider {
	return &Slider{onChange: onChange}
}

// SetDates replaces the date list. Handles reset to the full span whenever
// the number of dates changes.
func (s *Slider) SetDates(dates []string) {
	lengthChanged := len(dates) != len(s.dates)
	s.dates = dates
	if len(dates) == 0 {
		s.low, s.high = 0, 0
		return
	}
	if lengthChanged {
		s.low, s.high = 0, len(dates)-1
	}
	s.emit()
}

// MoveLow moves the low handle. A value past the high handle swaps roles:
// the old high becomes low and the proposed value becomes high.
func (s *Slider) MoveLow(i int) {
	if s.Empty() {
		return
	}
	i = s.clamp(i)
	if i <= s.high {
		s.low = i
	} else {
		s.low, s.high = s.high, i
	}
	s.emit()
}

// MoveHigh moves the high handle, swapping roles when it crosses below low.
func (s *Slider) MoveHigh(i int) {
	if s.Empty() {
		return
	}
	i = s.clamp(i)
	if i >= s.low {
		s.high = i
	} else {
		s.low, s.high = i, s.low
	}
	s.emit()
}

// Empty reports whether there are no dates to select from.
func (s *Slider) Empty() bool { return len(s.dates) == 0 }

// Indices returns the current handle positions.
func (s *Slider) Indices() (low, high int) { return s.low, s.high }

// Dates returns the date list backing the slider.
func (s *Slider) Dates() []string { return s.dates }

// Total is the number of selectable dates.
func (s *Slider) Total() int { return len(s.dates) }

// Count is the number of dates inside the selected span.
func (s *Slider) Count() int {
	if s.Empty() {
		return 0
	}
	return s.high - s.low + 1
}

// Range returns the selected date pair, or false when there are no dates.
func (s *Slider) Range() (DateRange, bool) {
	if s.Empty() {
		return DateRange{}, false
	}
	return DateRange{Start: s.dates[s.low], End: s.dates[s.high]}, true
}

// Percent returns both handle positions as a percentage of the track.
func (s *Slider) Percent() (low, high float64) {
	divisor := 1
	if len(s.dates) > 1 {
		divisor = len(s.dates) - 1
	}
	return float64(s.low) / float64(divisor) * 100, float64(s.high) / float64(divisor) * 100
}

func (s *Slider) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if last := len(s.dates) - 1; i > last {
		return last
	}
	return i
}

func (s *Slider) emit() {
	if s.onChange == nil {
		return
	}
	if rng, ok := s.Range(); ok {
		s.onChange(rng)
	}
}

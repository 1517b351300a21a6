package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Band is one slice of the distribution pie.
type Band struct {
	Name  string `json:"name"`
	Count int    `json:"value"`
}

// Distribution splits the positive readings of metric into three equal-width
// bands over their observed [min, max]. A value on an interior boundary falls
// into the lower band. Bands with no members are omitted.
func Distribution(records []Record, metric Metric) []Band {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if v := rec.Value(metric).OrZero(); v > 0 {
			values = append(values, v)
		}
	}
	return Terciles(values)
}

// Terciles buckets values (ignoring those <= 0) into low/medium/high bands.
func Terciles(values []float64) []Band {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, v := range values {
		if v <= 0 {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		n++
	}
	if n == 0 {
		return nil
	}

	span := hi - lo
	t1 := lo + span/3
	t2 := lo + span*2/3

	var counts [3]int
	for _, v := range values {
		switch {
		case v <= 0:
			continue
		case v <= t1:
			counts[0]++
		case v <= t2:
			counts[1]++
		default:
			counts[2]++
		}
	}

	names := [3]string{
		bandName("Baja", lo, t1),
		bandName("Media", t1, t2),
		bandName("Alta", t2, hi),
	}

	bands := make([]Band, 0, 3)
	for i, c := range counts {
		if c > 0 {
			bands = append(bands, Band{Name: names[i], Count: c})
		}
	}
	return bands
}

func bandName(prefix string, from, to float64) string {
	return fmt.Sprintf("%s (%s-%s)", prefix, roundLabel(from), roundLabel(to))
}

// roundLabel renders v with no decimals, rounding half away from zero.
func roundLabel(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

package domain

// Summary feeds the statistic cards above the charts.
type Summary struct {
	TotalRecords        int     `json:"total_records"`
	TotalMunicipalities int     `json:"total_municipios"`
	MeanRadiance        float64 `json:"radianza_promedio"`
	MaxRadiance         float64 `json:"radianza_maxima"`
	DateMin             string  `json:"fecha_min"`
	DateMax             string  `json:"fecha_max"`
}

// Summarize computes the card values. The mean averages valid
// Media_de_radianza readings and the maximum is taken over valid
// Maximo_de_radianza readings; missing readings are skipped.
func Summarize(records []Record) Summary {
	s := Summary{
		TotalRecords:        len(records),
		TotalMunicipalities: len(DistinctMunicipalities(records)),
	}

	var total float64
	var n int
	haveMax := false
	for _, rec := range records {
		if v := rec.Value(MetricMean); v.Valid {
			total += v.Float64
			n++
		}
		if v := rec.Value(MetricMax); v.Valid && (!haveMax || v.Float64 > s.MaxRadiance) {
			s.MaxRadiance = v.Float64
			haveMax = true
		}
	}
	if n > 0 {
		s.MeanRadiance = total / float64(n)
	}

	if dates := DistinctDates(records); len(dates) > 0 {
		s.DateMin = dates[0]
		s.DateMax = dates[len(dates)-1]
	}
	return s
}

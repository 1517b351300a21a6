package domain

import (
	"fmt"
	"slices"
)

// Selection is what the user has chosen to look at.
type Selection struct {
	Municipalities []string   `json:"municipalities"`
	Metrics        []Metric   `json:"metrics"`
	Year           *int       `json:"year"`
	Range          *DateRange `json:"range"`
}

// Clone returns a deep copy so callers can hand it out safely.
func (s Selection) Clone() Selection {
	out := Selection{
		Municipalities: slices.Clone(s.Municipalities),
		Metrics:        slices.Clone(s.Metrics),
	}
	if s.Year != nil {
		y := *s.Year
		out.Year = &y
	}
	if s.Range != nil {
		r := *s.Range
		out.Range = &r
	}
	return out
}

// PrimaryMetric is the metric driving the comparison and distribution charts.
func (s Selection) PrimaryMetric() Metric {
	if len(s.Metrics) == 0 {
		return DefaultMetric
	}
	return s.Metrics[0]
}

// Toggle adds item to list if absent, or removes it if present, preserving
// the order of the remaining items.
func Toggle[T comparable](list []T, item T) []T {
	if i := slices.Index(list, item); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1)
	}
	return append(slices.Clone(list), item)
}

// ToggleAll selects every option, or clears the selection when everything is
// already selected.
func ToggleAll[T comparable](selected, all []T) []T {
	if len(selected) == len(all) {
		return []T{}
	}
	return slices.Clone(all)
}

// MunicipalitiesText is the summary shown on the municipality dropdown.
func MunicipalitiesText(selected, all []string) string {
	switch {
	case len(selected) == 0:
		return "Seleccionar Municipios..."
	case len(selected) == 1:
		return selected[0]
	case len(selected) == len(all):
		return "Todos los municipios"
	default:
		return fmt.Sprintf("%d municipios seleccionados", len(selected))
	}
}

// MetricsText is the summary shown on the metric dropdown.
func MetricsText(selected []Metric) string {
	switch {
	case len(selected) == 0:
		return "Seleccionar Métricas..."
	case len(selected) == 1:
		return selected[0].Label()
	case len(selected) == len(Metrics):
		return "Todas las métricas"
	default:
		return fmt.Sprintf("%d métricas seleccionadas", len(selected))
	}
}

// YearText is the label for the year dropdown.
func YearText(year *int) string {
	if year == nil {
		return "Todos los años"
	}
	return fmt.Sprintf("%d", *year)
}

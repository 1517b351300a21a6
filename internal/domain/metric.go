package domain

// Metric is a radiance statistic column reported by the backend.
type Metric string

const (
	MetricMean   Metric = "Media_de_radianza"
	MetricMax    Metric = "Maximo_de_radianza"
	MetricMin    Metric = "Minimo_de_radianza"
	MetricSum    Metric = "Suma_de_radianza"
	MetricStdDev Metric = "Desviacion_estandar_de_radianza"
	MetricP25    Metric = "Percentil_25_de_radianza"
	MetricP50    Metric = "Percentil_50_de_radianza"
	MetricP75    Metric = "Percentil_75_de_radianza"
	MetricPixels Metric = "Cantidad_de_pixeles"
)

// DefaultMetric is selected when the dashboard first loads.
const DefaultMetric = MetricMean

// MetricInfo pairs a metric with its display label.
type MetricInfo struct {
	Metric Metric `json:"value"`
	Label  string `json:"label"`
}

// Metrics lists every metric in display order.
var Metrics = []MetricInfo{
	{MetricMean, "Media de Radianza"},
	{MetricMax, "Máximo de Radianza"},
	{MetricMin, "Mínimo de Radianza"},
	{MetricSum, "Suma de Radianza"},
	{MetricStdDev, "Desviación Estándar"},
	{MetricP25, "Percentil 25"},
	{MetricP50, "Percentil 50 (Mediana)"},
	{MetricP75, "Percentil 75"},
	{MetricPixels, "Cantidad de Píxeles"},
}

// ParseMetric returns the metric named by s, or false if s is not a known key.
func ParseMetric(s string) (Metric, bool) {
	for _, info := range Metrics {
		if string(info.Metric) == s {
			return info.Metric, true
		}
	}
	return "", false
}

// Label returns the display label, falling back to the raw key.
func (m Metric) Label() string {
	for _, info := range Metrics {
		if info.Metric == m {
			return info.Label
		}
	}
	return string(m)
}

// AllMetrics returns every metric key in display order.
func AllMetrics() []Metric {
	out := make([]Metric, len(Metrics))
	for i, info := range Metrics {
		out[i] = info.Metric
	}
	return out
}

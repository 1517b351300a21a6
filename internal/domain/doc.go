// Package domain models nighttime radiance readings per municipality and the
// pure transformations that turn them into chart-ready structures.
//
// # Data Source
//
// Readings are monthly composites derived from VIIRS day/night band imagery,
// aggregated by the radiance backend over the polygons of each municipality
// (the Mexico City boroughs plus Monterrey and Oaxaca de Juárez). The backend
// exposes them as flat JSON rows:
//
//	{"Fecha": "2023-01-01 00:00:00", "Municipio": "Coyoacán",
//	 "Media_de_radianza": 31.42, "Maximo_de_radianza": 120.7, ...}
//
// # Conventions
//
// Dates:
//
//	"YYYY-MM-DD", optionally followed by a time-of-day suffix separated by a
//	space or "T". Everything after the calendar day is discarded by
//	[Record.Day]; charts, filters and the slider operate on days only.
//
// Metric values:
//
//	Numbers or numeric strings. null, absent keys, unparseable strings, NaN
//	and infinities decode to the missing marker (a [Reading] with Valid
//	false), which marshals back to JSON null so chart lines gap instead of
//	dipping to zero.
//
// Aggregates:
//
//	Top-N ranking coerces missing readings to zero when averaging (see
//	[RankOptions]); tercile bucketing ignores values ≤ 0. Callers must treat
//	zero and missing alike as "no usable signal".
package domain

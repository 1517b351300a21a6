package domain

import (
	"time"

	"github.com/google/uuid"
)

// SelectionEventKind names what the user changed.
type SelectionEventKind string

const (
	EventMunicipalities SelectionEventKind = "municipalities"
	EventMetrics        SelectionEventKind = "metrics"
	EventYear           SelectionEventKind = "year"
	EventRange          SelectionEventKind = "range"
)

// SelectionEvent records a selection change for usage analytics.
type SelectionEvent struct {
	ID             string             `json:"id"`
	Kind           SelectionEventKind `json:"kind"`
	Municipalities []string           `json:"municipalities"`
	Metrics        []Metric           `json:"metrics"`
	Year           *int               `json:"year,omitempty"`
	Range          *DateRange         `json:"range,omitempty"`
	At             time.Time          `json:"at"`
}

// NewSelectionEvent snapshots sel under a fresh ID.
func NewSelectionEvent(kind SelectionEventKind, sel Selection) SelectionEvent {
	sel = sel.Clone()
	return SelectionEvent{
		ID:             uuid.NewString(),
		Kind:           kind,
		Municipalities: sel.Municipalities,
		Metrics:        sel.Metrics,
		Year:           sel.Year,
		Range:          sel.Range,
		At:             clock.Now().UTC(),
	}
}

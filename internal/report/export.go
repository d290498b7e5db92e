package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-nightsky/internal/conditions"
	"github.com/litescript/ls-nightsky/internal/tz"
)

// Export is the JSON-serializable form of a report.
type Export struct {
	ID          uuid.UUID                   `json:"id"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Timezone    tz.Info                     `json:"timezone"`
	Report      conditions.Report           `json:"report"`
	Timeline    []conditions.TimelineSample `json:"timeline,omitempty"`
}

// NewExport wraps a report for export under a fresh random ID.
func NewExport(r conditions.Report, zone tz.Info, generatedAt time.Time) *Export {
	return &Export{
		ID:          uuid.New(),
		GeneratedAt: generatedAt.UTC(),
		Timezone:    zone,
		Report:      r,
	}
}

// WithTimeline attaches timeline samples.
func (e *Export) WithTimeline(samples []conditions.TimelineSample) *Export {
	e.Timeline = samples
	return e
}

// WriteJSON writes the export as indented JSON.
func (e *Export) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

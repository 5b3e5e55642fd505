package cli

import (
	"io"
	"time"

	"github.com/agbru/pm1factor/internal/orchestration"
	"github.com/agbru/pm1factor/pkg/models"
)

// JSONReporter collects one report per input and writes a single
// models.BatchReport when the batch finishes.
type JSONReporter struct {
	out     io.Writer
	backend string
	started time.Time
	reports []models.FactorizationReport
	err     error
}

// NewJSONReporter creates a reporter that tags every report with backend.
func NewJSONReporter(out io.Writer, backend string) *JSONReporter {
	return &JSONReporter{out: out, backend: backend}
}

func (r *JSONReporter) InputStarted(_ orchestration.Input, at time.Time) { r.started = at }

func (r *JSONReporter) Event(orchestration.Event) {}

func (r *JSONReporter) InputFinished(in orchestration.Input, res orchestration.Result, err error) {
	r.reports = append(r.reports, orchestration.Report(in, res, err, r.backend, r.started))
}

func (r *JSONReporter) BatchFinished(s orchestration.Summary) {
	results := r.reports
	if results == nil {
		results = []models.FactorizationReport{}
	}
	data, err := models.MarshalIndented(models.BatchReport{
		Results:   results,
		Factored:  s.Factored,
		Attempted: s.Attempted,
	})
	if err != nil {
		r.err = err
		return
	}
	_, r.err = r.out.Write(data)
}

// Err returns the error, if any, raised while writing the document.
func (r *JSONReporter) Err() error { return r.err }

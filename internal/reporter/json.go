package reporter

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
)

// JSONReporter generates machine-readable JSON reports
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(writer io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		pretty: pretty,
	}
}

// scanOutput is the JSON form of a scan with its derived sections
type scanOutput struct {
	Report          *models.Report          `json:"report"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Trend           *models.Trend           `json:"trend,omitempty"`
}

// cycleOutput is the JSON form of an iteration run
type cycleOutput struct {
	History     *models.History    `json:"history"`
	Improvement []aggregator.Delta `json:"improvement,omitempty"`
	Verdict     aggregator.Verdict `json:"verdict,omitempty"`
}

// GenerateScan writes a scan report with its recommendations and trend
func (r *JSONReporter) GenerateScan(report *models.Report, recommendations []models.Recommendation, trend *models.Trend) error {
	if recommendations == nil {
		recommendations = []models.Recommendation{}
	}
	return r.write(scanOutput{
		Report:          report,
		Recommendations: recommendations,
		Trend:           trend,
	})
}

// GenerateCycle writes the iteration history with its improvement table
// and verdict. An empty history carries neither.
func (r *JSONReporter) GenerateCycle(history *models.History, maxHigh int) error {
	out := cycleOutput{History: history}
	if n := len(history.History); n > 0 {
		first, last := history.History[0].Summary, history.History[n-1].Summary
		out.Improvement = aggregator.Compare(first, last)
		out.Verdict = aggregator.Classify(last, maxHigh)
	}
	return r.write(out)
}

func (r *JSONReporter) write(v interface{}) error {
	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	_, err = r.writer.Write(data)
	if err != nil {
		return err
	}

	// Add trailing newline for terminal output
	_, err = r.writer.Write([]byte("\n"))
	return err
}

package aggregator

import "github.com/ppiankov/pyspectre/internal/models"

// MetricTotal names the total-issues row of an improvement table
const MetricTotal = "total"

// Delta is the change of one metric between the first and last iteration
type Delta struct {
	Metric  string  `json:"metric"`
	Initial int     `json:"initial"`
	Final   int     `json:"final"`
	Change  int     `json:"change"`  // initial minus final, positive is better
	Percent float64 `json:"percent"` // change relative to initial, 0 when initial is 0
}

// Verdict classifies the final state of an iteration run
type Verdict string

const (
	VerdictExcellent      Verdict = "excellent"
	VerdictAcceptable     Verdict = "acceptable"
	VerdictCriticalRemain Verdict = "critical_remaining"
)

// Message returns the human-readable verdict line
func (v Verdict) Message() string {
	switch v {
	case VerdictExcellent:
		return "Excellent code quality reached"
	case VerdictAcceptable:
		return "No critical issues left, quality is acceptable"
	default:
		return "Critical issues remain to be resolved"
	}
}

// Compare builds the improvement table between two report summaries:
// total issues, then each severity from critical to low.
func Compare(initial, final models.Summary) []Delta {
	deltas := make([]Delta, 0, len(models.Severities)+1)
	deltas = append(deltas, newDelta(MetricTotal, initial.TotalIssues, final.TotalIssues))
	for _, sev := range models.Severities {
		deltas = append(deltas, newDelta(string(sev), initial.IssuesBySeverity[sev], final.IssuesBySeverity[sev]))
	}
	return deltas
}

func newDelta(metric string, initial, final int) Delta {
	d := Delta{
		Metric:  metric,
		Initial: initial,
		Final:   final,
		Change:  initial - final,
	}
	if initial > 0 {
		d.Percent = float64(d.Change) / float64(initial) * 100.0
	}
	return d
}

// Classify grades the final summary. Excellent needs no critical issues
// and fewer high issues than maxHigh; acceptable only needs no critical
// issues.
func Classify(final models.Summary, maxHigh int) Verdict {
	critical := final.IssuesBySeverity[models.SeverityCritical]
	high := final.IssuesBySeverity[models.SeverityHigh]
	switch {
	case critical == 0 && high < maxHigh:
		return VerdictExcellent
	case critical == 0:
		return VerdictAcceptable
	default:
		return VerdictCriticalRemain
	}
}

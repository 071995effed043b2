package collector

import "encoding/json"

// Kind names the type of a pyspectre JSON document
type Kind string

const (
	KindReport  Kind = "report"
	KindHistory Kind = "history"
	KindUnknown Kind = "unknown"
)

// DetectKind classifies a document by its top-level keys. A history
// carries a run id and an iteration list; a report carries its issue
// list and severity counts.
func DetectKind(data []byte) Kind {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return KindUnknown
	}

	if hasKeys(raw, "run_id", "history") {
		return KindHistory
	}
	if hasKeys(raw, "issues", "issues_by_severity") {
		return KindReport
	}
	return KindUnknown
}

func hasKeys(m map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

package verify

import "github.com/rmontanez/chequeo/internal/model"

// Status classifies how a verification concluded. The response
// assembler pattern-matches on it to decide between escalation and
// degradation instead of swallowing errors mid-pipeline.
type Status int

const (
	// StatusResolved means a candidate was matched and fully resolved.
	StatusResolved Status = iota
	// StatusDegraded means some stage failed or the corpus was empty;
	// the response carries the static safe default.
	StatusDegraded
	// StatusInvalid means the caller's input failed validation. No
	// processing was performed.
	StatusInvalid
	// StatusFatal means storage was unreachable before any tier could
	// run. This is the only outcome allowed to surface as a transport
	// error.
	StatusFatal
)

// Outcome is the typed result threaded out of the pipeline.
type Outcome struct {
	Status   Status
	Response *Response
	// Err records the cause for degraded, invalid and fatal outcomes.
	// A degraded outcome still carries a complete response body.
	Err error
}

// SourceRef is the response shape of a supporting source.
type SourceRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// TopicRef is the response shape of a topic.
type TopicRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Response is the contract-shaped verification result. Verdict values
// stay in Spanish; key names follow the verify API contract.
type Response struct {
	Found                 bool          `json:"found"`
	ContentID             int64         `json:"contentId"`
	Result                model.Verdict `json:"result"`
	Title                 string        `json:"title"`
	ConfidencePercent     int           `json:"confidencePercent"`
	Explanation           string        `json:"explanation"`
	Sources               []SourceRef   `json:"sources"`
	Topic                 *TopicRef     `json:"topic"`
	CorrectInformation    string        `json:"correctInformation,omitempty"`
	AdditionalInformation []string      `json:"additionalInformation,omitempty"`
}

package models

// OutcomeKind is a worker's terminal report kind.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "SUCCESS"
	OutcomeError   OutcomeKind = "ERROR"
	OutcomeSkipped OutcomeKind = "SKIPPED"
)

// JobMetadata is the structured job data persisted after a successful application.
type JobMetadata struct {
	JobID    string `json:"jobId,omitempty"`
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
}

// Outcome is the terminal result of one job-application attempt.
type Outcome struct {
	Kind   OutcomeKind  `json:"kind"`
	URL    string       `json:"url"`
	Job    *JobMetadata `json:"job,omitempty"`
	Error  string       `json:"error,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// LinkStatus maps the outcome to the ledger status it produces.
func (o Outcome) LinkStatus() LinkStatus {
	switch o.Kind {
	case OutcomeSuccess:
		return LinkSuccess
	case OutcomeSkipped:
		return LinkSkipped
	default:
		return LinkError
	}
}

// Success builds a SUCCESS outcome.
func Success(url string, job JobMetadata) Outcome {
	return Outcome{Kind: OutcomeSuccess, URL: url, Job: &job}
}

// Failure builds an ERROR outcome.
func Failure(url, msg string) Outcome {
	return Outcome{Kind: OutcomeError, URL: url, Error: msg}
}

// Skipped builds a SKIPPED outcome.
func Skipped(url, reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, URL: url, Reason: reason}
}

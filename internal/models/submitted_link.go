package models

import "time"

// LinkStatus is the ledger status of a job URL.
type LinkStatus string

const (
	LinkProcessing LinkStatus = "PROCESSING"
	LinkSuccess    LinkStatus = "SUCCESS"
	LinkError      LinkStatus = "ERROR"
	LinkSkipped    LinkStatus = "SKIPPED"
)

// Terminal reports whether the status ends an attempt.
func (s LinkStatus) Terminal() bool {
	return s == LinkSuccess || s == LinkError || s == LinkSkipped
}

// SubmittedLink is one Link Ledger row.
type SubmittedLink struct {
	URL           string       `json:"url"`
	NormalizedURL string       `json:"normalizedUrl"`
	Status        LinkStatus   `json:"status"`
	Timestamp     time.Time    `json:"timestamp"`
	Payload       *JobMetadata `json:"payload,omitempty"`
	Error         string       `json:"error,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

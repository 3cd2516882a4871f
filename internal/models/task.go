package models

// TaskKind discriminates the work handed to a worker.
type TaskKind string

const (
	TaskSearch TaskKind = "SEARCH"
	TaskApply  TaskKind = "APPLY"
)

// Task is a unit of work handed to a worker. Search tasks carry the config
// snapshot and ledger rows; apply tasks carry the job URL and cached profile.
type Task struct {
	Kind           TaskKind        `json:"kind"`
	SessionID      string          `json:"sessionId"`
	UserID         string          `json:"userId,omitempty"`
	Platform       Platform        `json:"platform"`
	SearchConfig   *SearchConfig   `json:"searchConfig,omitempty"`
	SubmittedLinks []SubmittedLink `json:"submittedLinks,omitempty"`
	JobURL         string          `json:"jobUrl,omitempty"`
	Profile        *Profile        `json:"profile,omitempty"`
}

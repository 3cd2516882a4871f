package models

import "time"

// Platform names a supported career-site platform.
type Platform string

const (
	PlatformAshby      Platform = "ashby"
	PlatformWorkable   Platform = "workable"
	PlatformBreezy     Platform = "breezy"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLinkedIn   Platform = "linkedin"
)

// Phase is the coordinator-side lifecycle phase of a session.
type Phase string

const (
	PhaseIdle          Phase = "IDLE"
	PhaseSearching     Phase = "SEARCHING"
	PhaseAwaitingApply Phase = "AWAITING_APPLY"
	PhaseApplying      Phase = "APPLYING"
	PhaseCompleted     Phase = "COMPLETED"
)

// CompletionStatus distinguishes why a session reached PhaseCompleted.
type CompletionStatus string

const (
	StatusTargetReached    CompletionStatus = "TARGET_REACHED"
	StatusNoMoreCandidates CompletionStatus = "NO_MORE_CANDIDATES"
	StatusAborted          CompletionStatus = "ABORTED"
	StatusStopped          CompletionStatus = "STOPPED"
)

// SearchConfig is the target count, progress and scope of a session.
type SearchConfig struct {
	Limit       int    `json:"limit" validate:"min=1"`
	Current     int    `json:"current" validate:"min=0"`
	Domain      string `json:"domain,omitempty"`
	LinkPattern string `json:"linkPattern,omitempty"`
}

// CurrentJob is the job mid-application in a session.
type CurrentJob struct {
	URL       string    `json:"url"`
	TabHandle string    `json:"tabHandle,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// SessionState is the durable record of one automation run.
type SessionState struct {
	SessionID    string           `json:"sessionId"`
	UserID       string           `json:"userId"`
	Platform     Platform         `json:"platform"`
	WindowID     string           `json:"windowId,omitempty"`
	SearchConfig SearchConfig     `json:"searchConfig"`
	IsProcessing bool             `json:"isProcessing"`
	CurrentJob   *CurrentJob      `json:"currentJob,omitempty"`
	Phase        Phase            `json:"phase"`
	Status       CompletionStatus `json:"status,omitempty"`
	ErrorCount   int              `json:"errorCount"`
	SearchTab    string           `json:"searchTab,omitempty"`
	LastError    string           `json:"lastError,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}

// Completed reports whether the session is terminal.
func (s SessionState) Completed() bool {
	return s.Phase == PhaseCompleted
}

// ApplicationStatus is the authoritative in-flight snapshot handed to workers.
type ApplicationStatus struct {
	InProgress bool       `json:"inProgress"`
	URL        string     `json:"url,omitempty"`
	TabHandle  string     `json:"tabHandle,omitempty"`
	StartTime  *time.Time `json:"startTime,omitempty"`
}

// StartSessionRequest creates a session.
type StartSessionRequest struct {
	SessionID    string       `json:"sessionId,omitempty"`
	UserID       string       `json:"userId" validate:"required"`
	Platform     Platform     `json:"platform" validate:"required,oneof=ashby workable breezy greenhouse linkedin"`
	WindowID     string       `json:"windowId,omitempty"`
	SearchConfig SearchConfig `json:"searchConfig"`
}

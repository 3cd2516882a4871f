package models

import "time"

// AppliedJobRecord is forwarded to the Application-Tracker after a SUCCESS.
type AppliedJobRecord struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	Platform  Platform  `json:"platform"`
	URL       string    `json:"url"`
	JobID     string    `json:"jobId,omitempty"`
	Title     string    `json:"title,omitempty"`
	Company   string    `json:"company,omitempty"`
	Location  string    `json:"location,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
}

package models

import "encoding/json"

// MessageType names an envelope on the message channel.
type MessageType string

const (
	// UI → coordinator
	MsgStartSession MessageType = "START_SESSION"
	MsgStopSession  MessageType = "STOP_SESSION"

	// worker → coordinator
	MsgGetSearchTask          MessageType = "GET_SEARCH_TASK"
	MsgGetApplicationTask     MessageType = "GET_APPLICATION_TASK"
	MsgStartApplication       MessageType = "START_APPLICATION"
	MsgApplicationCompleted   MessageType = "APPLICATION_COMPLETED"
	MsgApplicationError       MessageType = "APPLICATION_ERROR"
	MsgApplicationSkipped     MessageType = "APPLICATION_SKIPPED"
	MsgSearchCompleted        MessageType = "SEARCH_COMPLETED"
	MsgSearchNextReady        MessageType = "SEARCH_NEXT_READY"
	MsgCheckApplicationStatus MessageType = "CHECK_APPLICATION_STATUS"
	MsgVerifyApplication      MessageType = "VERIFY_APPLICATION_STATUS"

	// coordinator → worker
	MsgSearchNext MessageType = "SEARCH_NEXT"

	// replies
	MsgSearchTask         MessageType = "SEARCH_TASK"
	MsgApplicationTask    MessageType = "APPLICATION_TASK"
	MsgApplicationStarted MessageType = "APPLICATION_STARTED"
	MsgApplicationStatus  MessageType = "APPLICATION_STATUS"
	MsgSessionState       MessageType = "SESSION_STATE"
	MsgAck                MessageType = "ACK"
	MsgError              MessageType = "ERROR"
)

// Envelope is the transport-agnostic message shape.
type Envelope struct {
	Type      MessageType     `json:"type" validate:"required"`
	SessionID string          `json:"sessionId" validate:"required"`
	RequestID string          `json:"requestId,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to" validate:"required"`
	Reply     bool            `json:"reply,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// TaskRequest asks for a SEARCH or APPLY task from a given tab.
type TaskRequest struct {
	Tab string `json:"tab,omitempty"`
}

// StartApplicationRequest asks the coordinator to begin an application.
type StartApplicationRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ApplicationStarted is the accepted reply to StartApplicationRequest.
type ApplicationStarted struct {
	Accepted bool   `json:"accepted"`
	URL      string `json:"url"`
}

// OutcomeReport is the body of APPLICATION_COMPLETED/ERROR/SKIPPED.
type OutcomeReport struct {
	URL    string       `json:"url" validate:"required,url"`
	Job    *JobMetadata `json:"job,omitempty"`
	Error  string       `json:"error,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// SearchCompletedReport tells the coordinator the search page ran out of candidates.
type SearchCompletedReport struct {
	Reason string `json:"reason,omitempty"`
}

// SearchNextDirective instructs the search-page worker to advance.
type SearchNextDirective struct {
	URL     string     `json:"url,omitempty"`
	Status  LinkStatus `json:"status,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ErrorPayload carries a taxonomy code across the channel.
type ErrorPayload struct {
	Code    string `json:"code" validate:"required"`
	Message string `json:"message,omitempty"`
}

// OutcomeMessageType maps an outcome kind to its report message type.
func OutcomeMessageType(kind OutcomeKind) MessageType {
	switch kind {
	case OutcomeSuccess:
		return MsgApplicationCompleted
	case OutcomeSkipped:
		return MsgApplicationSkipped
	default:
		return MsgApplicationError
	}
}

// OutcomeKindFor maps a report message type back to its outcome kind.
func OutcomeKindFor(t MessageType) (OutcomeKind, bool) {
	switch t {
	case MsgApplicationCompleted:
		return OutcomeSuccess, true
	case MsgApplicationError:
		return OutcomeError, true
	case MsgApplicationSkipped:
		return OutcomeSkipped, true
	default:
		return "", false
	}
}

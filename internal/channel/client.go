package channel

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/models"
)

// Client calls the coordinator over a Conn. Its methods mirror SessionService.
type Client struct {
	conn *Conn
}

// NewClient wraps conn.
func NewClient(conn *Conn) *Client {
	return &Client{conn: conn}
}

var _ SessionService = (*Client)(nil)

func (c *Client) call(ctx context.Context, sessionID string, t, want models.MessageType, payload, out any) error {
	got, err := c.conn.Request(ctx, CoordinatorAddress, sessionID, t, payload, out)
	if err != nil {
		return err
	}
	if got != want {
		return errors.Wrapf(apperrors.ErrInvalidMessage, "unexpected reply %s to %s", got, t)
	}
	return nil
}

func (c *Client) StartSession(ctx context.Context, req models.StartSessionRequest) (models.SessionState, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	var state models.SessionState
	err := c.call(ctx, req.SessionID, models.MsgStartSession, models.MsgSessionState, req, &state)
	return state, err
}

func (c *Client) StopSession(ctx context.Context, sessionID string) (models.SessionState, error) {
	var state models.SessionState
	err := c.call(ctx, sessionID, models.MsgStopSession, models.MsgSessionState, nil, &state)
	return state, err
}

func (c *Client) RequestSearchTask(ctx context.Context, sessionID, tab string) (models.Task, error) {
	var task models.Task
	err := c.call(ctx, sessionID, models.MsgGetSearchTask, models.MsgSearchTask, models.TaskRequest{Tab: tab}, &task)
	return task, err
}

func (c *Client) RequestApplicationTask(ctx context.Context, sessionID, tab string) (models.Task, error) {
	var task models.Task
	err := c.call(ctx, sessionID, models.MsgGetApplicationTask, models.MsgApplicationTask, models.TaskRequest{Tab: tab}, &task)
	return task, err
}

// BeginApplication sends START_APPLICATION. The channel assigns its own request
// id, so requestID is ignored here.
func (c *Client) BeginApplication(ctx context.Context, sessionID, url, _ string) error {
	var started models.ApplicationStarted
	if err := c.call(ctx, sessionID, models.MsgStartApplication, models.MsgApplicationStarted, models.StartApplicationRequest{URL: url}, &started); err != nil {
		return err
	}
	if !started.Accepted {
		return errors.Wrapf(apperrors.ErrNotReady, "application for %s not accepted", url)
	}
	return nil
}

func (c *Client) ReportOutcome(ctx context.Context, sessionID string, outcome models.Outcome) error {
	report := models.OutcomeReport{URL: outcome.URL, Job: outcome.Job, Error: outcome.Error, Reason: outcome.Reason}
	return c.call(ctx, sessionID, models.OutcomeMessageType(outcome.Kind), models.MsgAck, report, nil)
}

func (c *Client) CompleteSearch(ctx context.Context, sessionID, reason string) error {
	return c.call(ctx, sessionID, models.MsgSearchCompleted, models.MsgAck, models.SearchCompletedReport{Reason: reason}, nil)
}

func (c *Client) VerifyStatus(ctx context.Context, sessionID string) (models.ApplicationStatus, error) {
	var status models.ApplicationStatus
	err := c.call(ctx, sessionID, models.MsgVerifyApplication, models.MsgApplicationStatus, nil, &status)
	return status, err
}

// OnSearchNext acknowledges every SEARCH_NEXT with SEARCH_NEXT_READY and then
// calls fn. fn runs on the handler goroutine and must return promptly.
func (c *Client) OnSearchNext(fn func(directive models.SearchNextDirective)) {
	c.conn.Handle(models.MsgSearchNext, func(_ context.Context, env models.Envelope) (models.MessageType, any, error) {
		var directive models.SearchNextDirective
		if err := Decode(env.Data, &directive); err != nil {
			return "", nil, err
		}
		fn(directive)
		return models.MsgSearchNextReady, nil, nil
	})
}

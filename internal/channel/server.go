package channel

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

// SessionService is the coordinator surface exposed on the channel.
type SessionService interface {
	StartSession(ctx context.Context, req models.StartSessionRequest) (models.SessionState, error)
	StopSession(ctx context.Context, sessionID string) (models.SessionState, error)
	RequestSearchTask(ctx context.Context, sessionID, tab string) (models.Task, error)
	RequestApplicationTask(ctx context.Context, sessionID, tab string) (models.Task, error)
	BeginApplication(ctx context.Context, sessionID, url, requestID string) error
	ReportOutcome(ctx context.Context, sessionID string, outcome models.Outcome) error
	CompleteSearch(ctx context.Context, sessionID, reason string) error
	VerifyStatus(ctx context.Context, sessionID string) (models.ApplicationStatus, error)
}

// Server dispatches coordinator-bound requests to a SessionService.
type Server struct {
	conn *Conn
	svc  SessionService
	log  *zap.Logger
}

// NewServer installs the coordinator handlers on conn.
func NewServer(conn *Conn, svc SessionService, log *zap.Logger) *Server {
	s := &Server{conn: conn, svc: svc, log: logger.Component(logger.OrNop(log), "channel-server")}
	conn.Handle(models.MsgStartSession, s.handleStartSession)
	conn.Handle(models.MsgStopSession, s.handleStopSession)
	conn.Handle(models.MsgGetSearchTask, s.handleSearchTask)
	conn.Handle(models.MsgGetApplicationTask, s.handleApplicationTask)
	conn.Handle(models.MsgStartApplication, s.handleStartApplication)
	conn.Handle(models.MsgApplicationCompleted, s.handleOutcome)
	conn.Handle(models.MsgApplicationError, s.handleOutcome)
	conn.Handle(models.MsgApplicationSkipped, s.handleOutcome)
	conn.Handle(models.MsgSearchCompleted, s.handleSearchCompleted)
	conn.Handle(models.MsgCheckApplicationStatus, s.handleStatus)
	conn.Handle(models.MsgVerifyApplication, s.handleStatus)
	return s
}

func (s *Server) handleStartSession(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	var req models.StartSessionRequest
	if err := Decode(env.Data, &req); err != nil {
		return "", nil, err
	}
	if req.SessionID == "" {
		req.SessionID = env.SessionID
	}
	state, err := s.svc.StartSession(ctx, req)
	return models.MsgSessionState, state, err
}

func (s *Server) handleStopSession(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	state, err := s.svc.StopSession(ctx, env.SessionID)
	return models.MsgSessionState, state, err
}

func (s *Server) handleSearchTask(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	var req models.TaskRequest
	if err := Decode(env.Data, &req); err != nil {
		return "", nil, err
	}
	task, err := s.svc.RequestSearchTask(ctx, env.SessionID, tabOf(req, env))
	return models.MsgSearchTask, task, err
}

func (s *Server) handleApplicationTask(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	var req models.TaskRequest
	if err := Decode(env.Data, &req); err != nil {
		return "", nil, err
	}
	task, err := s.svc.RequestApplicationTask(ctx, env.SessionID, tabOf(req, env))
	return models.MsgApplicationTask, task, err
}

func (s *Server) handleStartApplication(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	var req models.StartApplicationRequest
	if err := Decode(env.Data, &req); err != nil {
		return "", nil, err
	}
	if err := s.svc.BeginApplication(ctx, env.SessionID, req.URL, env.RequestID); err != nil {
		return "", nil, err
	}
	return models.MsgApplicationStarted, models.ApplicationStarted{Accepted: true, URL: req.URL}, nil
}

func (s *Server) handleOutcome(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	kind, ok := models.OutcomeKindFor(env.Type)
	if !ok {
		return "", nil, errors.Wrapf(apperrors.ErrInvalidMessage, "not an outcome: %s", env.Type)
	}
	var report models.OutcomeReport
	if err := Decode(env.Data, &report); err != nil {
		return "", nil, err
	}
	outcome := models.Outcome{Kind: kind, URL: report.URL, Job: report.Job, Error: report.Error, Reason: report.Reason}
	return models.MsgAck, nil, s.svc.ReportOutcome(ctx, env.SessionID, outcome)
}

func (s *Server) handleSearchCompleted(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	var report models.SearchCompletedReport
	if err := Decode(env.Data, &report); err != nil {
		return "", nil, err
	}
	return models.MsgAck, nil, s.svc.CompleteSearch(ctx, env.SessionID, report.Reason)
}

func (s *Server) handleStatus(ctx context.Context, env models.Envelope) (models.MessageType, any, error) {
	status, err := s.svc.VerifyStatus(ctx, env.SessionID)
	return models.MsgApplicationStatus, status, err
}

// tabOf falls back to the tab encoded in the sender's worker address.
func tabOf(req models.TaskRequest, env models.Envelope) string {
	if req.Tab != "" {
		return req.Tab
	}
	prefix := WorkerAddress(env.SessionID, "")
	if strings.HasPrefix(env.From, prefix) {
		return strings.TrimPrefix(env.From, prefix)
	}
	return ""
}

// Notifier sends SEARCH_NEXT directives to search-page workers over a Conn.
type Notifier struct {
	conn *Conn
}

// NewNotifier builds a Notifier on the coordinator's conn.
func NewNotifier(conn *Conn) *Notifier {
	return &Notifier{conn: conn}
}

// SearchNext delivers the directive and waits for SEARCH_NEXT_READY.
func (n *Notifier) SearchNext(ctx context.Context, sessionID, tab string, directive models.SearchNextDirective) error {
	t, err := n.conn.Request(ctx, WorkerAddress(sessionID, tab), sessionID, models.MsgSearchNext, directive, nil)
	if err != nil {
		return err
	}
	if t != models.MsgSearchNextReady {
		return errors.Wrapf(apperrors.ErrInvalidMessage, "unexpected reply %s to %s", t, models.MsgSearchNext)
	}
	return nil
}

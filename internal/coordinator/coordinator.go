// Package coordinator owns session lifecycle: it serializes every operation on
// a session through one actor, enforces the one-application-at-a-time rule,
// and paces the search loop with a continuation delay after each outcome.
package coordinator

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/ledger"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
	"careerpilot/internal/store"
)

// Config tunes the coordinator. Zero values fall back to defaults.
type Config struct {
	Policy              Policy
	PlatformPolicies    map[models.Platform]Policy
	WatchdogTimeout     time.Duration
	DirectiveTimeout    time.Duration
	CollaboratorTimeout time.Duration
	MailboxSize         int
}

const (
	defaultWatchdogTimeout     = 3 * time.Minute
	defaultDirectiveTimeout    = 10 * time.Second
	defaultCollaboratorTimeout = 5 * time.Second
	defaultMailboxSize         = 16
)

func (c Config) withDefaults() Config {
	if c.Policy == (Policy{}) {
		c.Policy = DefaultPolicy()
	}
	if c.WatchdogTimeout <= 0 {
		c.WatchdogTimeout = defaultWatchdogTimeout
	}
	if c.DirectiveTimeout <= 0 {
		c.DirectiveTimeout = defaultDirectiveTimeout
	}
	if c.CollaboratorTimeout <= 0 {
		c.CollaboratorTimeout = defaultCollaboratorTimeout
	}
	if c.MailboxSize <= 0 {
		c.MailboxSize = defaultMailboxSize
	}
	return c
}

func (c Config) policyFor(p models.Platform) Policy {
	if override, ok := c.PlatformPolicies[p]; ok {
		return override
	}
	return c.Policy
}

// Deps are the collaborators of a Coordinator. Store, Ledger and Notifier are required.
type Deps struct {
	Store    store.SessionStore
	Ledger   ledger.Ledger
	Notifier Notifier
	Profiles ProfileService
	Tracker  Tracker
	Adapters *platform.Registry
	Clock    Clock
	Logger   *zap.Logger
}

// Coordinator is the registry of live sessions.
type Coordinator struct {
	store    store.SessionStore
	ledger   ledger.Ledger
	notifier Notifier
	profiles ProfileService
	tracker  Tracker
	adapters *platform.Registry
	clock    Clock
	cfg      Config
	log      *zap.Logger
	stats    counters

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*session
	// completed holds the final state of sessions finished by this
	// coordinator; lookup never resumes them from the store.
	completed map[string]models.SessionState
	closed    bool
}

// New creates a Coordinator.
func New(deps Deps, cfg Config) (*Coordinator, error) {
	if deps.Store == nil {
		return nil, errors.New("coordinator: session store is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("coordinator: ledger is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("coordinator: notifier is required")
	}
	if deps.Adapters == nil {
		deps.Adapters = platform.DefaultRegistry()
	}
	if deps.Clock == nil {
		deps.Clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:    deps.Store,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		profiles: deps.Profiles,
		tracker:  deps.Tracker,
		adapters: deps.Adapters,
		clock:    deps.Clock,
		cfg:      cfg.withDefaults(),
		log:      logger.Component(logger.OrNop(deps.Logger), "coordinator"),
		ctx:      ctx,
		cancel:   cancel,
		sessions:  make(map[string]*session),
		completed: make(map[string]models.SessionState),
	}, nil
}

// Close stops every session actor and waits for background work. Session
// state stays in the store so another coordinator can resume it.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.bg.Wait()
}

// Stats returns a snapshot of the coordinator counters.
func (c *Coordinator) Stats() Stats {
	s := c.stats.snapshot()
	c.mu.Lock()
	s.ActiveSessions = len(c.sessions)
	c.mu.Unlock()
	return s
}

// StartSession validates req, persists a new session in IDLE and registers its actor.
func (c *Coordinator) StartSession(ctx context.Context, req models.StartSessionRequest) (models.SessionState, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return models.SessionState{}, errors.Wrap(apperrors.ErrInvalidMessage, "userId is required")
	}
	if _, err := c.adapters.Get(req.Platform); err != nil {
		return models.SessionState{}, errors.Mark(err, apperrors.ErrInvalidMessage)
	}
	cfg := req.SearchConfig
	if cfg.Limit < 1 {
		return models.SessionState{}, errors.Wrapf(apperrors.ErrInvalidMessage, "limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Current < 0 || cfg.Current >= cfg.Limit {
		return models.SessionState{}, errors.Wrapf(apperrors.ErrInvalidMessage, "current %d outside [0, %d)", cfg.Current, cfg.Limit)
	}
	if cfg.LinkPattern != "" {
		if _, err := regexp.Compile(cfg.LinkPattern); err != nil {
			return models.SessionState{}, errors.Wrap(errors.Mark(err, apperrors.ErrInvalidMessage), "linkPattern")
		}
	}

	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	c.mu.Lock()
	_, live := c.sessions[id]
	_, finished := c.completed[id]
	c.mu.Unlock()
	if live {
		return models.SessionState{}, errors.Wrapf(apperrors.ErrSessionExists, "%s", id)
	}
	if existing, ok, err := c.store.GetState(ctx, id); err != nil {
		return models.SessionState{}, errors.Wrap(err, "load session")
	} else if ok && !existing.Completed() && !finished {
		return models.SessionState{}, errors.Wrapf(apperrors.ErrSessionExists, "%s", id)
	}

	now := c.clock.Now()
	state := models.SessionState{
		SessionID:    id,
		UserID:       req.UserID,
		Platform:     req.Platform,
		WindowID:     req.WindowID,
		SearchConfig: cfg,
		Phase:        models.PhaseIdle,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.store.SetState(ctx, state); err != nil {
		return models.SessionState{}, errors.Wrap(err, "persist session")
	}
	if _, err := c.register(state, false); err != nil {
		return models.SessionState{}, err
	}
	c.stats.sessionsStarted.Add(1)
	c.log.Info("session started",
		zap.String(logger.FieldSessionID, id),
		zap.String(logger.FieldUserID, req.UserID),
		zap.String(logger.FieldPlatform, string(req.Platform)),
		zap.Int("limit", cfg.Limit),
	)
	return state, nil
}

// StopSession completes the session with STOPPED and returns its final state.
func (c *Coordinator) StopSession(ctx context.Context, sessionID string) (models.SessionState, error) {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return models.SessionState{}, err
	}
	var final models.SessionState
	err = s.do(ctx, func() error {
		s.finish(ctx, models.StatusStopped, "")
		final = s.state
		return nil
	})
	return final, err
}

// RequestSearchTask hands the search-page worker its config snapshot and ledger
// rows, and moves the session to AWAITING_APPLY. tab identifies the search page.
func (c *Coordinator) RequestSearchTask(ctx context.Context, sessionID, tab string) (models.Task, error) {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return models.Task{}, err
	}
	var task models.Task
	err = s.do(ctx, func() error {
		var err error
		task, err = s.searchTask(ctx, tab)
		return err
	})
	return task, err
}

// RequestApplicationTask hands the job-page worker the in-flight job and the
// applicant profile. A failed profile fetch yields an empty profile.
func (c *Coordinator) RequestApplicationTask(ctx context.Context, sessionID, tab string) (models.Task, error) {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return models.Task{}, err
	}
	var task models.Task
	err = s.do(ctx, func() error {
		var err error
		task, err = s.applyTask(ctx, tab)
		return err
	})
	if err != nil || task.Profile != nil {
		return task, err
	}
	task.Profile = c.fetchProfile(ctx, s, task.UserID)
	return task, nil
}

func (c *Coordinator) fetchProfile(ctx context.Context, s *session, userID string) *models.Profile {
	empty := &models.Profile{UserID: userID}
	if c.profiles == nil {
		return empty
	}
	pctx, cancel := context.WithTimeout(ctx, c.cfg.CollaboratorTimeout)
	defer cancel()
	profile, err := c.profiles.GetUserDetails(pctx, userID)
	if err != nil {
		s.log.Warn("profile fetch failed", zap.String(logger.FieldUserID, userID), zap.Error(err))
		return empty
	}
	_ = s.do(ctx, func() error {
		if s.profile == nil {
			s.profile = &profile
		}
		return nil
	})
	return &profile
}

// BeginApplication claims the session for url. Rejections, in order:
// ErrAlreadyProcessing, ErrDuplicate, ErrNotReady.
func (c *Coordinator) BeginApplication(ctx context.Context, sessionID, url, requestID string) error {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.do(ctx, func() error {
		return s.begin(ctx, url, requestID)
	})
}

// ReportOutcome records the terminal outcome of the in-flight job and schedules
// the next search step. A repeated report for an already terminal URL is a no-op.
func (c *Coordinator) ReportOutcome(ctx context.Context, sessionID string, outcome models.Outcome) error {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.do(ctx, func() error {
		return s.report(ctx, outcome)
	})
}

// CompleteSearch ends the session with NO_MORE_CANDIDATES.
func (c *Coordinator) CompleteSearch(ctx context.Context, sessionID, reason string) error {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.do(ctx, func() error {
		if s.state.IsProcessing {
			return errors.Wrap(apperrors.ErrAlreadyProcessing, "cannot complete search while applying")
		}
		s.finish(ctx, models.StatusNoMoreCandidates, reason)
		return nil
	})
}

// VerifyStatus reports the in-flight job, if any.
func (c *Coordinator) VerifyStatus(ctx context.Context, sessionID string) (models.ApplicationStatus, error) {
	s, err := c.lookup(ctx, sessionID)
	if err != nil {
		return models.ApplicationStatus{}, err
	}
	var status models.ApplicationStatus
	err = s.do(ctx, func() error {
		status = s.applicationStatus()
		return nil
	})
	return status, err
}

// Session returns the current state of a session, including completed ones still in the store.
func (c *Coordinator) Session(ctx context.Context, sessionID string) (models.SessionState, error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	final, finished := c.completed[sessionID]
	c.mu.Unlock()
	if finished && !ok {
		return final, nil
	}
	if ok {
		var state models.SessionState
		err := s.do(ctx, func() error {
			state = s.state
			return nil
		})
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, apperrors.ErrNoActiveSession) {
			return models.SessionState{}, err
		}
		c.mu.Lock()
		final, finished = c.completed[sessionID]
		c.mu.Unlock()
		if finished {
			return final, nil
		}
	}
	state, found, err := c.store.GetState(ctx, sessionID)
	if err != nil {
		return models.SessionState{}, errors.Wrap(err, "load session")
	}
	if !found {
		return models.SessionState{}, errors.Wrapf(apperrors.ErrNoActiveSession, "%s", sessionID)
	}
	return state, nil
}

// Links returns the ledger rows of a session.
func (c *Coordinator) Links(ctx context.Context, sessionID string) ([]models.SubmittedLink, error) {
	if _, err := c.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	return c.ledger.Snapshot(ctx, sessionID)
}

// lookup returns the live actor for sessionID, resuming it from the store when
// this coordinator has not seen it yet.
func (c *Coordinator) lookup(ctx context.Context, sessionID string) (*session, error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	_, finished := c.completed[sessionID]
	c.mu.Unlock()
	if ok {
		return s, nil
	}
	if finished {
		return nil, errors.Wrapf(apperrors.ErrNoActiveSession, "%s completed", sessionID)
	}
	state, found, err := c.store.GetState(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if !found || state.Completed() {
		return nil, errors.Wrapf(apperrors.ErrNoActiveSession, "%s", sessionID)
	}
	return c.register(state, true)
}

func (c *Coordinator) register(state models.SessionState, recovered bool) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.Wrap(apperrors.ErrNoActiveSession, "coordinator closed")
	}
	if _, finished := c.completed[state.SessionID]; finished {
		if recovered {
			return nil, errors.Wrapf(apperrors.ErrNoActiveSession, "%s completed", state.SessionID)
		}
		delete(c.completed, state.SessionID)
	}
	if existing, ok := c.sessions[state.SessionID]; ok {
		if !recovered {
			return nil, errors.Wrapf(apperrors.ErrSessionExists, "%s", state.SessionID)
		}
		return existing, nil
	}
	s := newSession(c, state)
	if recovered {
		c.resume(s)
	}
	c.sessions[state.SessionID] = s
	c.bg.Add(1)
	go s.run()
	return s, nil
}

// resume re-arms timers lost with the previous coordinator. It runs before
// the actor starts.
func (c *Coordinator) resume(s *session) {
	c.stats.sessionsRecovered.Add(1)
	switch {
	case s.state.IsProcessing && s.state.CurrentJob != nil:
		remaining := c.cfg.WatchdogTimeout - c.clock.Now().Sub(s.state.CurrentJob.StartedAt)
		s.armWatchdog(remaining)
	case s.state.Phase == models.PhaseSearching:
		s.scheduleContinuation(0, models.SearchNextDirective{})
	}
	s.log.Info("session resumed",
		zap.String(logger.FieldPhase, string(s.state.Phase)),
		zap.Bool("processing", s.state.IsProcessing),
	)
}

func (c *Coordinator) remove(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[s.id] == s {
		delete(c.sessions, s.id)
		c.completed[s.id] = s.state
	}
}

// forward hands a successful application to the tracker off the actor.
func (c *Coordinator) forward(record models.AppliedJobRecord) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CollaboratorTimeout)
		defer cancel()
		log := c.log.With(zap.String(logger.FieldSessionID, record.SessionID), zap.String(logger.FieldURL, record.URL))
		if err := c.tracker.SaveAppliedJob(ctx, record); err != nil {
			c.stats.trackerFailures.Add(1)
			log.Warn("save applied job", zap.Error(err))
		}
		if err := c.tracker.IncrementApplicationCount(ctx, record.UserID); err != nil {
			c.stats.trackerFailures.Add(1)
			log.Warn("increment application count", zap.Error(err))
		}
	}()
}

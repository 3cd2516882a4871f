package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/ledger"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

var errStale = errors.New("stale timer")

// session is the actor owning one SessionState. Every mutation runs on its
// goroutine, in mailbox order.
type session struct {
	c       *Coordinator
	id      string
	state   models.SessionState
	policy  Policy
	profile *models.Profile
	sched   *Scheduler
	log     *zap.Logger

	// appliedBefore holds normalized URLs the tracker reported as applied in
	// earlier sessions. They never enter the ledger.
	appliedBefore map[string]bool

	// ctx is cancelled when the session finishes.
	ctx    context.Context
	cancel context.CancelFunc

	contPending bool
	contToken   uint64
	contTimer   uint64
	watchToken  uint64
	watchTimer  uint64
	finished    bool

	mailbox chan func()
	done    chan struct{}
}

func newSession(c *Coordinator, state models.SessionState) *session {
	ctx, cancel := context.WithCancel(c.ctx)
	return &session{
		c:             c,
		id:            state.SessionID,
		state:         state,
		policy:        c.cfg.policyFor(state.Platform),
		appliedBefore: make(map[string]bool),
		sched:         NewScheduler(c.clock),
		log:           c.log.With(zap.String(logger.FieldSessionID, state.SessionID), zap.String(logger.FieldPlatform, string(state.Platform))),
		ctx:           ctx,
		cancel:        cancel,
		mailbox:       make(chan func(), c.cfg.MailboxSize),
		done:          make(chan struct{}),
	}
}

func (s *session) run() {
	defer s.c.bg.Done()
	for {
		select {
		case op := <-s.mailbox:
			op()
			if s.finished {
				close(s.done)
				return
			}
		case <-s.c.ctx.Done():
			s.sched.Stop()
			s.cancel()
			close(s.done)
			return
		}
	}
}

// do runs fn on the actor and waits for its result.
func (s *session) do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	op := func() { errCh <- fn() }
	select {
	case s.mailbox <- op:
	case <-s.done:
		return apperrors.ErrNoActiveSession
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errCh:
		return err
	case <-s.done:
		// The op may have been the one that finished the session.
		select {
		case err := <-errCh:
			return err
		default:
			return apperrors.ErrNoActiveSession
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) persist(ctx context.Context) {
	s.state.UpdatedAt = s.c.clock.Now()
	if err := s.c.store.SetState(ctx, s.state); err != nil {
		s.log.Warn("persist session state", zap.Error(err))
	}
}

func (s *session) setProcessing(ctx context.Context, processing bool) {
	s.state.IsProcessing = processing
	if err := s.c.store.SetProcessingFlag(ctx, s.id, processing); err != nil {
		s.log.Warn("persist processing flag", zap.Bool("processing", processing), zap.Error(err))
	}
}

func (s *session) searchTask(ctx context.Context, tab string) (models.Task, error) {
	if tab != "" {
		s.state.SearchTab = tab
	}
	switch {
	case s.state.Phase == models.PhaseApplying:
		s.c.stats.rejectedNotReady.Add(1)
		return models.Task{}, errors.Wrap(apperrors.ErrNotReady, "application in flight")
	case s.contPending:
		s.c.stats.rejectedNotReady.Add(1)
		return models.Task{}, errors.Wrap(apperrors.ErrNotReady, "continuation pending")
	}
	links, err := s.c.ledger.Snapshot(ctx, s.id)
	if err != nil {
		return models.Task{}, errors.Wrap(err, "snapshot ledger")
	}
	s.state.Phase = models.PhaseAwaitingApply
	s.persist(ctx)

	cfg := s.state.SearchConfig
	return models.Task{
		Kind:           models.TaskSearch,
		SessionID:      s.id,
		UserID:         s.state.UserID,
		Platform:       s.state.Platform,
		SearchConfig:   &cfg,
		SubmittedLinks: links,
	}, nil
}

func (s *session) begin(ctx context.Context, url, requestID string) error {
	log := s.log.With(zap.String(logger.FieldURL, url), zap.String(logger.FieldRequestID, requestID))
	if s.state.IsProcessing {
		s.c.stats.rejectedProcessing.Add(1)
		current := ""
		if s.state.CurrentJob != nil {
			current = s.state.CurrentJob.URL
		}
		log.Debug("reject begin: already processing", zap.String("current_url", current))
		return errors.Wrapf(apperrors.ErrAlreadyProcessing, "in flight: %s", current)
	}
	dup, err := s.c.ledger.IsDuplicate(ctx, s.id, url)
	if err != nil {
		return errors.Wrap(err, "check ledger")
	}
	if !dup && s.c.tracker != nil {
		dup = s.appliedElsewhere(ctx, url)
	}
	if dup {
		s.c.stats.rejectedDuplicate.Add(1)
		log.Debug("reject begin: duplicate")
		return errors.Wrapf(apperrors.ErrDuplicate, "%s", ledger.Normalize(url))
	}
	if s.state.Phase != models.PhaseAwaitingApply {
		s.c.stats.rejectedNotReady.Add(1)
		return errors.Wrapf(apperrors.ErrNotReady, "phase %s", s.state.Phase)
	}
	if err := s.c.ledger.MarkProcessing(ctx, s.id, url); err != nil {
		return errors.Wrap(err, "mark processing")
	}

	now := s.c.clock.Now()
	s.setProcessing(ctx, true)
	s.state.CurrentJob = &models.CurrentJob{URL: url, StartedAt: now}
	s.state.Phase = models.PhaseApplying
	s.persist(ctx)
	s.armWatchdog(s.c.cfg.WatchdogTimeout)
	s.c.stats.accepted.Add(1)
	log.Info("application accepted")
	return nil
}

// appliedElsewhere asks the tracker whether the user applied to url in an
// earlier session. Positive answers are remembered for the session only.
func (s *session) appliedElsewhere(ctx context.Context, url string) bool {
	key := ledger.Normalize(url)
	if s.appliedBefore[key] {
		return true
	}
	tctx, cancel := context.WithTimeout(ctx, s.c.cfg.CollaboratorTimeout)
	defer cancel()
	applied, err := s.c.tracker.CheckAlreadyApplied(tctx, url, s.state.Platform)
	if err != nil {
		s.c.stats.trackerFailures.Add(1)
		s.log.Warn("tracker check failed", zap.String(logger.FieldURL, url), zap.Error(err))
		return false
	}
	if !applied {
		return false
	}
	s.appliedBefore[key] = true
	s.c.stats.trackerDuplicates.Add(1)
	s.log.Info("already applied in an earlier session", zap.String(logger.FieldURL, url))
	return true
}

func (s *session) applyTask(ctx context.Context, tab string) (models.Task, error) {
	if !s.state.IsProcessing || s.state.CurrentJob == nil {
		return models.Task{}, errors.Wrap(apperrors.ErrNotReady, "no application in flight")
	}
	if tab != "" && s.state.CurrentJob.TabHandle != tab {
		s.state.CurrentJob.TabHandle = tab
		s.persist(ctx)
	}
	cfg := s.state.SearchConfig
	return models.Task{
		Kind:         models.TaskApply,
		SessionID:    s.id,
		UserID:       s.state.UserID,
		Platform:     s.state.Platform,
		SearchConfig: &cfg,
		JobURL:       s.state.CurrentJob.URL,
		Profile:      s.profile,
	}, nil
}

func (s *session) report(ctx context.Context, outcome models.Outcome) error {
	key := ledger.Normalize(outcome.URL)
	job := s.state.CurrentJob
	if !s.state.IsProcessing || job == nil || ledger.Normalize(job.URL) != key {
		row, ok, err := s.c.ledger.Lookup(ctx, s.id, outcome.URL)
		if err != nil {
			return errors.Wrap(err, "lookup ledger")
		}
		if ok && row.Status.Terminal() {
			s.log.Debug("repeated outcome ignored", zap.String(logger.FieldURL, outcome.URL), zap.String(logger.FieldOutcome, string(outcome.Kind)))
			return nil
		}
		return errors.Wrapf(apperrors.ErrNoMatchingApplication, "%s", outcome.URL)
	}

	if err := s.c.ledger.MarkTerminal(ctx, s.id, job.URL, outcome); err != nil {
		return errors.Wrap(err, "mark terminal")
	}
	s.watchToken++
	s.sched.Cancel(s.watchTimer)
	s.setProcessing(ctx, false)
	s.state.CurrentJob = nil

	var delay time.Duration
	delay, s.state.ErrorCount = s.policy.Next(outcome.Kind, s.state.ErrorCount)
	directive := models.SearchNextDirective{URL: job.URL, Status: outcome.LinkStatus()}
	switch outcome.Kind {
	case models.OutcomeSuccess:
		s.c.stats.outcomesSuccess.Add(1)
		s.state.SearchConfig.Current++
		s.state.LastError = ""
		s.recordApplied(job.URL, outcome.Job)
	case models.OutcomeSkipped:
		s.c.stats.outcomesSkipped.Add(1)
		directive.Message = outcome.Reason
	default:
		s.c.stats.outcomesError.Add(1)
		s.state.LastError = outcome.Error
		directive.Message = outcome.Error
	}
	s.log.Info("application outcome",
		zap.String(logger.FieldURL, job.URL),
		zap.String(logger.FieldOutcome, string(outcome.Kind)),
		zap.Int("current", s.state.SearchConfig.Current),
		zap.Int("limit", s.state.SearchConfig.Limit),
		zap.Int("error_count", s.state.ErrorCount),
	)

	if s.state.SearchConfig.Current >= s.state.SearchConfig.Limit {
		s.finish(ctx, models.StatusTargetReached, "")
		return nil
	}
	s.state.Phase = models.PhaseSearching
	s.persist(ctx)
	s.scheduleContinuation(delay, directive)
	return nil
}

func (s *session) recordApplied(url string, job *models.JobMetadata) {
	if s.c.tracker == nil {
		return
	}
	record := models.AppliedJobRecord{
		UserID:    s.state.UserID,
		SessionID: s.id,
		Platform:  s.state.Platform,
		URL:       url,
		AppliedAt: s.c.clock.Now(),
	}
	if job != nil {
		record.JobID = job.JobID
		record.Title = job.Title
		record.Company = job.Company
		record.Location = job.Location
	}
	s.c.forward(record)
}

func (s *session) scheduleContinuation(delay time.Duration, directive models.SearchNextDirective) {
	s.contToken++
	token := s.contToken
	s.contPending = true
	s.contTimer = s.sched.Schedule(delay, func() { s.onContinuation(token, directive) })
	s.log.Debug("continuation scheduled", zap.Int64(logger.FieldDelayMS, delay.Milliseconds()))
}

// onContinuation runs on the timer goroutine. The directive is sent outside
// the actor so a slow worker never blocks the mailbox.
func (s *session) onContinuation(token uint64, directive models.SearchNextDirective) {
	var tab string
	err := s.do(s.c.ctx, func() error {
		if !s.contPending || token != s.contToken {
			return errStale
		}
		s.contPending = false
		tab = s.state.SearchTab
		return nil
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.c.cfg.DirectiveTimeout)
	defer cancel()
	if s.ctx.Err() != nil {
		// Stopped between the actor check and the send.
		return
	}
	if tab == "" {
		err = errors.Wrap(apperrors.ErrUnreachable, "no search tab registered")
	} else {
		err = s.c.notifier.SearchNext(ctx, s.id, tab, directive)
	}
	if err == nil {
		s.c.stats.directivesSent.Add(1)
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	s.c.stats.directiveFailures.Add(1)
	s.log.Warn("search tab unreachable", zap.String(logger.FieldTab, tab), zap.Error(err))
	_ = s.do(s.c.ctx, func() error {
		s.finish(s.c.ctx, models.StatusAborted, fmt.Sprintf("search tab unreachable: %v", err))
		return nil
	})
}

func (s *session) armWatchdog(d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	s.watchToken++
	token := s.watchToken
	s.watchTimer = s.sched.Schedule(d, func() { s.onWatchdog(token) })
}

func (s *session) onWatchdog(token uint64) {
	_ = s.do(s.c.ctx, func() error {
		if token != s.watchToken || !s.state.IsProcessing || s.state.CurrentJob == nil {
			return errStale
		}
		s.c.stats.watchdogTimeouts.Add(1)
		url := s.state.CurrentJob.URL
		s.log.Warn("application watchdog fired", zap.String(logger.FieldURL, url))
		if err := s.report(s.c.ctx, models.Failure(url, "timeout")); err != nil {
			s.log.Error("watchdog outcome", zap.Error(err))
			return err
		}
		return nil
	})
}

// finish completes the session. An in-flight job is released and recorded as ERROR.
// The final writes outlive the caller's context.
func (s *session) finish(ctx context.Context, status models.CompletionStatus, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.c.cfg.CollaboratorTimeout)
	defer cancel()
	s.cancel()
	s.sched.Stop()
	s.contPending = false
	if s.state.IsProcessing && s.state.CurrentJob != nil {
		url := s.state.CurrentJob.URL
		if err := s.c.ledger.MarkTerminal(ctx, s.id, url, models.Failure(url, "session "+string(status))); err != nil {
			s.log.Warn("release in-flight job", zap.String(logger.FieldURL, url), zap.Error(err))
		}
	}
	s.setProcessing(ctx, false)
	now := s.c.clock.Now()
	s.state.CurrentJob = nil
	s.state.Phase = models.PhaseCompleted
	s.state.Status = status
	s.state.CompletedAt = &now
	if reason != "" {
		s.state.LastError = reason
	}
	s.persist(ctx)
	s.finished = true
	s.c.remove(s)

	s.c.stats.sessionsCompleted.Add(1)
	if status == models.StatusAborted {
		s.c.stats.sessionsAborted.Add(1)
	}
	s.log.Info("session completed",
		zap.String(logger.FieldStatus, string(status)),
		zap.Int("current", s.state.SearchConfig.Current),
		zap.String("reason", reason),
	)
}

func (s *session) applicationStatus() models.ApplicationStatus {
	if !s.state.IsProcessing || s.state.CurrentJob == nil {
		return models.ApplicationStatus{}
	}
	started := s.state.CurrentJob.StartedAt
	return models.ApplicationStatus{
		InProgress: true,
		URL:        s.state.CurrentJob.URL,
		TabHandle:  s.state.CurrentJob.TabHandle,
		StartTime:  &started,
	}
}

// Package worker drives one browser tab through a single activation: it
// classifies the page, then either picks the next job from a search page or
// applies on a job page, always deferring to the coordinator for state.
package worker

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/ledger"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
)

// Coordinator is the coordinator surface a worker calls.
type Coordinator interface {
	RequestSearchTask(ctx context.Context, sessionID, tab string) (models.Task, error)
	RequestApplicationTask(ctx context.Context, sessionID, tab string) (models.Task, error)
	BeginApplication(ctx context.Context, sessionID, url, requestID string) error
	ReportOutcome(ctx context.Context, sessionID string, outcome models.Outcome) error
	CompleteSearch(ctx context.Context, sessionID, reason string) error
	VerifyStatus(ctx context.Context, sessionID string) (models.ApplicationStatus, error)
}

// Page is the live document of one tab.
type Page interface {
	URL(ctx context.Context) (string, error)
	Has(ctx context.Context, selector string) (bool, error)
	Links(ctx context.Context) ([]string, error)
}

// FillResult is what the form-fill engine reports back.
type FillResult struct {
	Submitted bool
	Job       models.JobMetadata
}

// FormFiller fills and submits an application form. Returning an
// apperrors.SkipApplicationError marks the job SKIPPED instead of ERROR.
type FormFiller interface {
	Fill(ctx context.Context, page Page, adapter platform.Adapter, task models.Task) (FillResult, error)
}

// Opener opens a job URL in a new tab.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Step is the branch an activation took.
type Step string

const (
	StepNone   Step = "none"
	StepSearch Step = "search"
	StepApply  Step = "apply"
)

// Activation summarizes one Run.
type Activation struct {
	PageType   platform.PageType
	Step       Step
	JobURL     string
	Outcome    *models.Outcome
	Duplicates []string
	Exhausted  bool
}

// Config identifies the tab and bounds page classification.
type Config struct {
	SessionID string
	Tab       string
	// Opened marks a tab the search worker opened for the in-flight job.
	Opened       bool
	WaitBound    time.Duration
	PollInterval time.Duration
}

const (
	defaultWaitBound    = 10 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

const (
	reasonUnrecognized = "unrecognized page"
	reasonExhausted    = "no more candidates"
)

// Client runs activations for one tab.
type Client struct {
	coord   Coordinator
	adapter platform.Adapter
	filler  FormFiller
	opener  Opener
	cfg     Config
	log     *zap.Logger
}

// New builds a Client for a tab of the given platform.
func New(coord Coordinator, adapter platform.Adapter, filler FormFiller, opener Opener, cfg Config, log *zap.Logger) *Client {
	if cfg.WaitBound <= 0 {
		cfg.WaitBound = defaultWaitBound
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Client{
		coord:   coord,
		adapter: adapter,
		filler:  filler,
		opener:  opener,
		cfg:     cfg,
		log: logger.Component(logger.OrNop(log), "worker").With(
			zap.String(logger.FieldSessionID, cfg.SessionID),
			zap.String(logger.FieldTab, cfg.Tab),
			zap.String(logger.FieldPlatform, string(adapter.Name())),
		),
	}
}

// Run executes one activation on page.
func (c *Client) Run(ctx context.Context, page Page) (Activation, error) {
	pageType, url, err := c.classify(ctx, page)
	if err != nil {
		return Activation{}, err
	}
	c.log.Debug("page classified", zap.String(logger.FieldURL, url), zap.String("page_type", string(pageType)))

	var act Activation
	switch pageType {
	case platform.PageSearch:
		act, err = c.search(ctx, page)
	case platform.PageJobListing, platform.PageApplication:
		act, err = c.apply(ctx, page, url)
	default:
		act, err = c.unrecognized(ctx)
	}
	act.PageType = pageType
	return act, err
}

// OnSearchNext advances the search page after the coordinator's directive.
func (c *Client) OnSearchNext(ctx context.Context, page Page, directive models.SearchNextDirective) (Activation, error) {
	c.log.Info("search next",
		zap.String(logger.FieldURL, directive.URL),
		zap.String(logger.FieldStatus, string(directive.Status)),
	)
	act, err := c.search(ctx, page)
	act.PageType = platform.PageSearch
	return act, err
}

// classify polls until the page is recognized or the wait bound elapses.
func (c *Client) classify(ctx context.Context, page Page) (platform.PageType, string, error) {
	deadline := time.Now().Add(c.cfg.WaitBound)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		url, err := page.URL(ctx)
		if err != nil {
			return "", "", errors.Wrap(err, "read page url")
		}
		probe := func(selector string) bool {
			ok, err := page.Has(ctx, selector)
			return err == nil && ok
		}
		if pt := c.adapter.ClassifyPage(url, probe); pt != platform.PageUnrecognized {
			return pt, url, nil
		}
		if !time.Now().Before(deadline) {
			return platform.PageUnrecognized, url, nil
		}
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) search(ctx context.Context, page Page) (Activation, error) {
	act := Activation{Step: StepSearch}
	task, err := c.coord.RequestSearchTask(ctx, c.cfg.SessionID, c.cfg.Tab)
	if errors.Is(err, apperrors.ErrNotReady) {
		act.Step = StepNone
		return act, nil
	}
	if err != nil {
		return act, errors.Wrap(err, "request search task")
	}

	links, err := page.Links(ctx)
	if err != nil {
		return act, errors.Wrap(err, "read links")
	}
	candidates, err := c.candidates(links, task)
	if err != nil {
		return act, err
	}

	for _, url := range candidates {
		err := c.coord.BeginApplication(ctx, c.cfg.SessionID, url, uuid.NewString())
		switch {
		case err == nil:
			act.JobURL = url
			c.log.Info("application started", zap.String(logger.FieldURL, url))
			if openErr := c.opener.Open(ctx, url); openErr != nil {
				outcome := models.Failure(url, fmt.Sprintf("open tab: %v", openErr))
				act.Outcome = &outcome
				return act, c.report(ctx, outcome)
			}
			return act, nil
		case errors.Is(err, apperrors.ErrDuplicate):
			act.Duplicates = append(act.Duplicates, url)
		case errors.Is(err, apperrors.ErrAlreadyProcessing), errors.Is(err, apperrors.ErrNotReady):
			c.log.Debug("begin rejected", zap.String(logger.FieldURL, url), zap.Error(err))
			act.Step = StepNone
			return act, nil
		default:
			return act, errors.Wrapf(err, "begin application %s", url)
		}
	}

	act.Exhausted = true
	c.log.Info("search exhausted", zap.Int("duplicates", len(act.Duplicates)))
	return act, c.coord.CompleteSearch(ctx, c.cfg.SessionID, reasonExhausted)
}

// candidates filters page links to unseen job URLs of this platform, in page order.
func (c *Client) candidates(links []string, task models.Task) ([]string, error) {
	var pattern *regexp.Regexp
	if task.SearchConfig != nil && task.SearchConfig.LinkPattern != "" {
		p, err := regexp.Compile(task.SearchConfig.LinkPattern)
		if err != nil {
			return nil, errors.Wrap(err, "link pattern")
		}
		pattern = p
	}
	seen := make(map[string]bool, len(task.SubmittedLinks)+len(links))
	for _, row := range task.SubmittedLinks {
		seen[row.NormalizedURL] = true
	}
	var out []string
	for _, link := range links {
		if !c.adapter.MatchesJobURL(link) {
			continue
		}
		if pattern != nil && !pattern.MatchString(link) {
			continue
		}
		key := ledger.Normalize(link)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, link)
	}
	return out, nil
}

func (c *Client) apply(ctx context.Context, page Page, pageURL string) (Activation, error) {
	act := Activation{Step: StepApply}
	status, err := c.coord.VerifyStatus(ctx, c.cfg.SessionID)
	if err != nil {
		return act, errors.Wrap(err, "verify status")
	}
	if !status.InProgress {
		c.log.Info("no application in flight; leaving page alone", zap.String(logger.FieldURL, pageURL))
		act.Step = StepNone
		return act, nil
	}
	if ledger.Normalize(status.URL) != ledger.Normalize(pageURL) && !c.sameJob(status.URL, pageURL) {
		c.log.Info("page is not the in-flight job",
			zap.String(logger.FieldURL, pageURL),
			zap.String("in_flight_url", status.URL),
		)
		act.Step = StepNone
		return act, nil
	}
	act.JobURL = status.URL

	task, err := c.coord.RequestApplicationTask(ctx, c.cfg.SessionID, c.cfg.Tab)
	if err != nil {
		return act, errors.Wrap(err, "request application task")
	}
	outcome := c.outcome(status.URL, c.fill(ctx, page, task))
	act.Outcome = &outcome
	return act, c.report(ctx, outcome)
}

func (c *Client) sameJob(a, b string) bool {
	idA, okA := c.adapter.ExtractJobID(a)
	idB, okB := c.adapter.ExtractJobID(b)
	return okA && okB && idA == idB
}

type fillAttempt struct {
	result FillResult
	err    error
}

// fill runs the form filler, converting a panic into an error.
func (c *Client) fill(ctx context.Context, page Page, task models.Task) (attempt fillAttempt) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("form filler panic", zap.Any("panic", r))
			attempt = fillAttempt{err: errors.Newf("form filler panic: %v", r)}
		}
	}()
	res, err := c.filler.Fill(ctx, page, c.adapter, task)
	return fillAttempt{result: res, err: err}
}

func (c *Client) outcome(url string, attempt fillAttempt) models.Outcome {
	if attempt.err != nil {
		if reason, ok := apperrors.SkipReason(attempt.err); ok {
			return models.Skipped(url, reason)
		}
		return models.Failure(url, attempt.err.Error())
	}
	if !attempt.result.Submitted {
		return models.Failure(url, "application form was not submitted")
	}
	job := attempt.result.Job
	if job.JobID == "" {
		job.JobID, _ = c.adapter.ExtractJobID(url)
	}
	return models.Success(url, job)
}

func (c *Client) report(ctx context.Context, outcome models.Outcome) error {
	err := c.coord.ReportOutcome(ctx, c.cfg.SessionID, outcome)
	if errors.Is(err, apperrors.ErrNoMatchingApplication) {
		// The coordinator already closed this job (watchdog or stop).
		c.log.Warn("outcome not matched", zap.String(logger.FieldURL, outcome.URL))
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "report outcome")
	}
	c.log.Info("outcome reported",
		zap.String(logger.FieldURL, outcome.URL),
		zap.String(logger.FieldOutcome, string(outcome.Kind)),
	)
	return nil
}

func (c *Client) unrecognized(ctx context.Context) (Activation, error) {
	act := Activation{Step: StepNone}
	status, err := c.coord.VerifyStatus(ctx, c.cfg.SessionID)
	if err != nil {
		return act, errors.Wrap(err, "verify status")
	}
	ours := status.TabHandle == c.cfg.Tab || (status.TabHandle == "" && c.cfg.Opened)
	if !status.InProgress || !ours {
		return act, nil
	}
	outcome := models.Skipped(status.URL, reasonUnrecognized)
	act.Step = StepApply
	act.JobURL = status.URL
	act.Outcome = &outcome
	return act, c.report(ctx, outcome)
}

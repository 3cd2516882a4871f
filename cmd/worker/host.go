package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/browser"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
	"careerpilot/internal/worker"
)

// tabHost opens and closes the tabs a host drives.
type tabHost interface {
	OpenTab(ctx context.Context, url, windowID string) (string, error)
	Page(handle string) (worker.Page, error)
	CloseTab(handle string)
}

type chromeTabs struct {
	*browser.TabManager
}

func (t chromeTabs) Page(handle string) (worker.Page, error) {
	p, err := t.TabManager.Page(handle)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type hostConfig struct {
	SessionID      string
	WindowID       string
	SearchTab      string
	WaitBound      time.Duration
	PollInterval   time.Duration
	StatusInterval time.Duration
}

// host runs the search tab of one session and a short-lived worker for every
// job tab it opens.
type host struct {
	cfg     hostConfig
	coord   worker.Coordinator
	adapter platform.Adapter
	filler  worker.FormFiller
	tabs    tabHost
	base    *zap.Logger
	log     *zap.Logger

	search     *worker.Client
	searchPage worker.Page
	directives chan models.SearchNextDirective

	runCtx context.Context
	jobs   sync.WaitGroup
}

func newHost(cfg hostConfig, coord worker.Coordinator, adapter platform.Adapter, filler worker.FormFiller, tabs tabHost, log *zap.Logger) (*host, error) {
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 30 * time.Second
	}
	page, err := tabs.Page(cfg.SearchTab)
	if err != nil {
		return nil, errors.Wrap(err, "search tab")
	}
	h := &host{
		cfg:        cfg,
		coord:      coord,
		adapter:    adapter,
		filler:     filler,
		tabs:       tabs,
		base:       logger.OrNop(log),
		log:        logger.Component(log, "worker-host").With(zap.String(logger.FieldSessionID, cfg.SessionID)),
		searchPage: page,
		directives: make(chan models.SearchNextDirective, 4),
		runCtx:     context.Background(),
	}
	h.search = worker.New(coord, adapter, filler, h, h.workerConfig(cfg.SearchTab, false), h.base)
	return h, nil
}

func (h *host) workerConfig(tab string, opened bool) worker.Config {
	return worker.Config{
		SessionID:    h.cfg.SessionID,
		Tab:          tab,
		Opened:       opened,
		WaitBound:    h.cfg.WaitBound,
		PollInterval: h.cfg.PollInterval,
	}
}

// deliver queues a SEARCH_NEXT directive for the search tab. It never blocks.
func (h *host) deliver(d models.SearchNextDirective) {
	select {
	case h.directives <- d:
	default:
		h.log.Warn("directive dropped; search tab busy", zap.String(logger.FieldURL, d.URL))
	}
}

// run drives the search tab until the session ends or ctx is cancelled.
func (h *host) run(ctx context.Context) error {
	h.runCtx = ctx
	defer h.jobs.Wait()

	ticker := time.NewTicker(h.cfg.StatusInterval)
	defer ticker.Stop()

	act, err := h.activate(ctx, func(ctx context.Context) (worker.Activation, error) {
		return h.search.Run(ctx, h.searchPage)
	})
	for {
		if act.Exhausted || errors.Is(err, apperrors.ErrNoActiveSession) {
			h.log.Info("session finished", zap.Bool("exhausted", act.Exhausted))
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case d := <-h.directives:
			act, err = h.activate(ctx, func(ctx context.Context) (worker.Activation, error) {
				return h.search.OnSearchNext(ctx, h.searchPage, d)
			})
		case <-ticker.C:
			act = worker.Activation{}
			_, err = h.coord.VerifyStatus(ctx, h.cfg.SessionID)
		}
	}
}

// Open implements worker.Opener: the job runs in its own tab on its own goroutine.
func (h *host) Open(ctx context.Context, url string) error {
	handle, err := h.tabs.OpenTab(ctx, url, h.cfg.WindowID)
	if err != nil {
		return err
	}
	page, err := h.tabs.Page(handle)
	if err != nil {
		h.tabs.CloseTab(handle)
		return err
	}
	atomic.AddInt64(&workerTabsOpen, 1)
	job := worker.New(h.coord, h.adapter, h.filler, h, h.workerConfig(handle, true), h.base)

	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		defer func() {
			h.tabs.CloseTab(handle)
			atomic.AddInt64(&workerTabsOpen, -1)
		}()
		_, _ = h.activate(h.runCtx, func(ctx context.Context) (worker.Activation, error) {
			return job.Run(ctx, page)
		})
	}()
	return nil
}

func (h *host) activate(ctx context.Context, fn func(context.Context) (worker.Activation, error)) (worker.Activation, error) {
	start := time.Now()
	act, err := fn(ctx)
	observeActivation(act, err, time.Since(start))
	switch {
	case err == nil:
		h.log.Debug("activation",
			zap.String("step", string(act.Step)),
			zap.String("page_type", string(act.PageType)),
			zap.String(logger.FieldURL, act.JobURL),
		)
	case errors.Is(err, apperrors.ErrNoActiveSession):
	default:
		h.log.Warn("activation failed", zap.String("step", string(act.Step)), zap.Error(err))
	}
	return act, err
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"careerpilot/internal/coordinator"
	"careerpilot/internal/ledger"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
	"careerpilot/internal/store"
	"careerpilot/internal/worker"
)

type staticPage struct {
	url   string
	links []string
}

func (p staticPage) URL(context.Context) (string, error)       { return p.url, nil }
func (p staticPage) Has(context.Context, string) (bool, error) { return false, nil }
func (p staticPage) Links(context.Context) ([]string, error)   { return p.links, nil }

type fakeTabs struct {
	mu     sync.Mutex
	pages  map[string]worker.Page
	opened []string
	closed []string
	next   int
}

func newFakeTabs(search worker.Page) *fakeTabs {
	return &fakeTabs{pages: map[string]worker.Page{"search": search}}
}

func (f *fakeTabs) OpenTab(_ context.Context, url, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	handle := fmt.Sprintf("job-%d", f.next)
	f.pages[handle] = staticPage{url: url}
	f.opened = append(f.opened, url)
	return handle, nil
}

func (f *fakeTabs) Page(handle string) (worker.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[handle]
	if !ok {
		return nil, errors.Newf("unknown tab %s", handle)
	}
	return p, nil
}

func (f *fakeTabs) CloseTab(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, handle)
	f.closed = append(f.closed, handle)
}

type submitAll struct{}

func (submitAll) Fill(context.Context, worker.Page, platform.Adapter, models.Task) (worker.FillResult, error) {
	return worker.FillResult{Submitted: true}, nil
}

// hostNotifier forwards directives to the host once it exists.
type hostNotifier struct {
	mu sync.Mutex
	h  *host
}

func (n *hostNotifier) SearchNext(_ context.Context, _, _ string, d models.SearchNextDirective) error {
	n.mu.Lock()
	h := n.h
	n.mu.Unlock()
	if h == nil {
		return errors.New("no host")
	}
	h.deliver(d)
	return nil
}

func TestHostRunsSessionToTarget(t *testing.T) {
	notifier := &hostNotifier{}
	policy := coordinator.DefaultPolicy()
	policy.Success = 5 * time.Millisecond
	coord, err := coordinator.New(coordinator.Deps{
		Store:    store.NewMemorySessionStore(),
		Ledger:   ledger.NewMemoryLedger(),
		Notifier: notifier,
	}, coordinator.Config{Policy: policy, WatchdogTimeout: time.Hour})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	t.Cleanup(coord.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := coord.StartSession(ctx, models.StartSessionRequest{
		UserID:       "user-1",
		Platform:     models.PlatformLinkedIn,
		SearchConfig: models.SearchConfig{Limit: 2},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	adapter, _ := platform.DefaultRegistry().Get(models.PlatformLinkedIn)
	jobA := "https://www.linkedin.com/jobs/view/3901"
	jobB := "https://www.linkedin.com/jobs/view/3902"
	tabs := newFakeTabs(staticPage{
		url:   "https://www.linkedin.com/jobs/search/?keywords=go",
		links: []string{jobA, jobB},
	})
	h, err := newHost(hostConfig{
		SessionID:      state.SessionID,
		WindowID:       "w-1",
		SearchTab:      "search",
		WaitBound:      50 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		StatusInterval: 20 * time.Millisecond,
	}, coord, adapter, submitAll{}, tabs, nil)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	notifier.mu.Lock()
	notifier.h = h
	notifier.mu.Unlock()

	if err := h.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("host did not finish before the deadline")
	}

	final, err := coord.Session(context.Background(), state.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if final.Status != models.StatusTargetReached || final.SearchConfig.Current != 2 {
		t.Fatalf("unexpected final state: %+v", final)
	}
	tabs.mu.Lock()
	defer tabs.mu.Unlock()
	if len(tabs.opened) != 2 || tabs.opened[0] != jobA || tabs.opened[1] != jobB {
		t.Fatalf("unexpected opened tabs: %v", tabs.opened)
	}
	if len(tabs.closed) != 2 {
		t.Fatalf("expected job tabs closed, got %v", tabs.closed)
	}
}

func TestHostStopsWhenSearchExhausted(t *testing.T) {
	coord, err := coordinator.New(coordinator.Deps{
		Store:    store.NewMemorySessionStore(),
		Ledger:   ledger.NewMemoryLedger(),
		Notifier: &hostNotifier{},
	}, coordinator.Config{})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	t.Cleanup(coord.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := coord.StartSession(ctx, models.StartSessionRequest{
		UserID:       "user-1",
		Platform:     models.PlatformLinkedIn,
		SearchConfig: models.SearchConfig{Limit: 3},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter, _ := platform.DefaultRegistry().Get(models.PlatformLinkedIn)
	tabs := newFakeTabs(staticPage{url: "https://www.linkedin.com/jobs/search/?keywords=cobol"})
	h, err := newHost(hostConfig{SessionID: state.SessionID, SearchTab: "search", WaitBound: 10 * time.Millisecond}, coord, adapter, submitAll{}, tabs, nil)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if err := h.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	final, err := coord.Session(context.Background(), state.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if final.Status != models.StatusNoMoreCandidates {
		t.Fatalf("expected NO_MORE_CANDIDATES, got %+v", final)
	}
}

func TestNewHostNeedsSearchTab(t *testing.T) {
	adapter, _ := platform.DefaultRegistry().Get(models.PlatformLinkedIn)
	tabs := &fakeTabs{pages: map[string]worker.Page{}}
	if _, err := newHost(hostConfig{SearchTab: "missing"}, nil, adapter, submitAll{}, tabs, nil); err == nil {
		t.Fatalf("expected error for unknown search tab")
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	h := &host{directives: make(chan models.SearchNextDirective, 1), log: zap.NewNop()}
	h.deliver(models.SearchNextDirective{URL: "a"})
	h.deliver(models.SearchNextDirective{URL: "b"})
	if got := <-h.directives; got.URL != "a" {
		t.Fatalf("expected first directive kept, got %+v", got)
	}
}

func TestHandleMetrics(t *testing.T) {
	observeActivation(worker.Activation{
		Step:    worker.StepApply,
		Outcome: &models.Outcome{Kind: models.OutcomeSkipped},
	}, nil, 750*time.Millisecond)

	rec := httptest.NewRecorder()
	handleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"careerpilot_worker_up 1",
		`careerpilot_worker_outcomes_total{kind="SKIPPED"}`,
		`careerpilot_worker_activation_latency_seconds_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	handleMetrics(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_ID", "")
	t.Setenv("WINDOW_ID", "")
	t.Setenv("HOSTNAME", "pod-7")
	t.Setenv("KAFKA_GROUP_ID", "")
	t.Setenv("PLATFORM", "")
	t.Setenv("CHROME_HEADLESS", "")
	cfg := loadConfig()
	if cfg.sessionID == "" || cfg.windowID != cfg.sessionID {
		t.Fatalf("expected generated session id reused as window id: %+v", cfg)
	}
	if cfg.groupID != "careerpilot-worker-pod-7" {
		t.Fatalf("unexpected group id %q", cfg.groupID)
	}
	if cfg.platform != models.PlatformLinkedIn || !cfg.browser.Headless {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

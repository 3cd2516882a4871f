package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

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

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *recordingOpener) Open(_ context.Context, url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, url)
	return nil
}

type directiveSink chan models.SearchNextDirective

func (d directiveSink) SearchNext(_ context.Context, _, _ string, directive models.SearchNextDirective) error {
	d <- directive
	return nil
}

type submitFiller struct{}

func (submitFiller) Fill(context.Context, worker.Page, platform.Adapter, models.Task) (worker.FillResult, error) {
	return worker.FillResult{Submitted: true, Job: models.JobMetadata{Title: "Backend Engineer"}}, nil
}

func TestSearchAndApplyAgainstCoordinator(t *testing.T) {
	directives := make(directiveSink, 4)
	policy := coordinator.DefaultPolicy()
	policy.Success = 5 * time.Millisecond
	coord, err := coordinator.New(coordinator.Deps{
		Store:    store.NewMemorySessionStore(),
		Ledger:   ledger.NewMemoryLedger(),
		Notifier: directives,
	}, coordinator.Config{Policy: policy})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	t.Cleanup(coord.Close)

	ctx := context.Background()
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
	search := staticPage{url: "https://www.linkedin.com/jobs/search/?keywords=go", links: []string{jobA, jobB}}
	opener := &recordingOpener{}
	searchTab := worker.New(coord, adapter, submitFiller{}, opener, worker.Config{SessionID: state.SessionID, Tab: "search"}, nil)
	jobTab := worker.New(coord, adapter, submitFiller{}, opener, worker.Config{SessionID: state.SessionID, Tab: "job", Opened: true}, nil)

	act, err := searchTab.Run(ctx, search)
	if err != nil || act.JobURL != jobA {
		t.Fatalf("expected first job to start, got %+v err=%v", act, err)
	}
	act, err = jobTab.Run(ctx, staticPage{url: jobA})
	if err != nil || act.Outcome == nil || act.Outcome.Kind != models.OutcomeSuccess {
		t.Fatalf("expected success, got %+v err=%v", act, err)
	}

	var directive models.SearchNextDirective
	select {
	case directive = <-directives:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected directive")
	}
	act, err = searchTab.OnSearchNext(ctx, search, directive)
	if err != nil || act.JobURL != jobB {
		t.Fatalf("expected second job after directive, got %+v err=%v", act, err)
	}
	if _, err := jobTab.Run(ctx, staticPage{url: jobB}); err != nil {
		t.Fatalf("apply second: %v", err)
	}

	final, err := coord.Session(ctx, state.SessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if final.Status != models.StatusTargetReached || final.SearchConfig.Current != 2 {
		t.Fatalf("unexpected final state: %+v", final)
	}
	if len(opener.urls) != 2 {
		t.Fatalf("expected two job tabs, got %v", opener.urls)
	}
}

package browser

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"

	"careerpilot/internal/apperrors"
	"careerpilot/internal/models"
	"careerpilot/internal/platform"
)

type fakeFormPage struct {
	html     string
	clicked  []string
	clickErr error
}

func (p *fakeFormPage) URL(context.Context) (string, error)       { return "https://jobs.ashbyhq.com/acme/1", nil }
func (p *fakeFormPage) Has(context.Context, string) (bool, error) { return false, nil }
func (p *fakeFormPage) Links(context.Context) ([]string, error)   { return nil, nil }
func (p *fakeFormPage) HTML(context.Context) (string, error)      { return p.html, nil }

func (p *fakeFormPage) Click(_ context.Context, selector string) error {
	p.clicked = append(p.clicked, selector)
	return p.clickErr
}

func ashby(t *testing.T) platform.Adapter {
	t.Helper()
	adapter, err := platform.DefaultRegistry().Get(models.PlatformAshby)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	return adapter
}

func TestSubmitFillerSubmits(t *testing.T) {
	page := &fakeFormPage{html: `<html><head><meta property="og:site_name" content="Acme"></head><body>
		<h1> Backend Engineer </h1>
		<form><input name="email"><button type="submit">Submit</button></form>
	</body></html>`}
	adapter := ashby(t)
	res, err := SubmitFiller{}.Fill(context.Background(), page, adapter, models.Task{})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !res.Submitted || res.Job.Title != "Backend Engineer" || res.Job.Company != "Acme" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(page.clicked) != 1 || page.clicked[0] != adapter.Selectors().Submit {
		t.Fatalf("expected submit click, got %v", page.clicked)
	}
}

func TestSubmitFillerSkips(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		reason string
	}{
		{"closed", `<body><h1>Job</h1><p>This job is no longer   available.</p><form></form></body>`, "posting closed"},
		{"applied", `<body><p>You have already applied to this role</p></body>`, "already applied"},
		{"no form", `<body><h1>Job</h1><p>Read more</p></body>`, "no application form"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakeFormPage{html: tt.html}
			_, err := SubmitFiller{}.Fill(context.Background(), page, ashby(t), models.Task{})
			reason, ok := apperrors.SkipReason(err)
			if !ok || reason != tt.reason {
				t.Fatalf("expected skip %q, got %v", tt.reason, err)
			}
			if len(page.clicked) != 0 {
				t.Fatalf("expected no click, got %v", page.clicked)
			}
		})
	}
}

func TestSubmitFillerMissingSubmitIsError(t *testing.T) {
	page := &fakeFormPage{html: `<body><form><input name="x"></form></body>`}
	_, err := SubmitFiller{}.Fill(context.Background(), page, ashby(t), models.Task{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := apperrors.SkipReason(err); ok {
		t.Fatalf("missing submit should not be a skip: %v", err)
	}
}

func TestSubmitFillerClickFailure(t *testing.T) {
	page := &fakeFormPage{
		html:     `<body><form><button type="submit">Go</button></form></body>`,
		clickErr: errors.New("node not visible"),
	}
	_, err := SubmitFiller{}.Fill(context.Background(), page, ashby(t), models.Task{})
	if err == nil || err.Error() != "node not visible" {
		t.Fatalf("expected click error, got %v", err)
	}
}

func TestSubmitFillerNeedsFormPage(t *testing.T) {
	if _, err := (SubmitFiller{}).Fill(context.Background(), onlyPage{}, ashby(t), models.Task{}); err == nil {
		t.Fatalf("expected error for page without html access")
	}
}

type onlyPage struct{}

func (onlyPage) URL(context.Context) (string, error)       { return "", nil }
func (onlyPage) Has(context.Context, string) (bool, error) { return false, nil }
func (onlyPage) Links(context.Context) ([]string, error)   { return nil, nil }

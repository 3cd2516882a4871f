package platform

import (
	"regexp"
	"strings"
	"testing"

	"careerpilot/internal/models"
)

const ashbyJob = "https://jobs.ashbyhq.com/acme/3f2a9b1c-1d2e-4f50-8a6b-7c8d9e0f1a2b"

func mustGet(t *testing.T, p models.Platform) Adapter {
	t.Helper()
	a, err := DefaultRegistry().Get(p)
	if err != nil {
		t.Fatalf("Get(%s): %v", p, err)
	}
	return a
}

func TestClassifyByURL(t *testing.T) {
	cases := []struct {
		platform models.Platform
		url      string
		want     PageType
	}{
		{models.PlatformAshby, ashbyJob, PageJobListing},
		{models.PlatformAshby, ashbyJob + "/application", PageApplication},
		{models.PlatformAshby, "https://jobs.ashbyhq.com/acme", PageSearch},
		{models.PlatformWorkable, "https://apply.workable.com/acme/j/1A2B3C4D5E/", PageJobListing},
		{models.PlatformWorkable, "https://apply.workable.com/acme/j/1A2B3C4D5E/apply/", PageApplication},
		{models.PlatformWorkable, "https://apply.workable.com/acme/", PageSearch},
		{models.PlatformBreezy, "https://acme.breezy.hr/p/8f1e2d3c4b5a-senior-engineer", PageJobListing},
		{models.PlatformBreezy, "https://acme.breezy.hr/p/8f1e2d3c4b5a-senior-engineer/apply", PageApplication},
		{models.PlatformGreenhouse, "https://boards.greenhouse.io/acme/jobs/4012345", PageJobListing},
		{models.PlatformLinkedIn, "https://www.linkedin.com/jobs/view/3901234567/", PageJobListing},
		{models.PlatformLinkedIn, "https://www.linkedin.com/jobs/search/?keywords=go", PageSearch},
		{models.PlatformGreenhouse, "https://www.google.com/search?q=site%3Aboards.greenhouse.io+golang", PageSearch},
		{models.PlatformAshby, "https://example.com/careers", PageUnrecognized},
	}
	for _, tc := range cases {
		if got := mustGet(t, tc.platform).ClassifyPage(tc.url, nil); got != tc.want {
			t.Fatalf("%s ClassifyPage(%q) = %s, want %s", tc.platform, tc.url, got, tc.want)
		}
	}
}

func TestClassifyByDOMMarker(t *testing.T) {
	gh := mustGet(t, models.PlatformGreenhouse)
	probe := func(selector string) bool { return selector == "#application_form, form#application-form" }
	if got := gh.ClassifyPage("https://boards.greenhouse.io/acme/jobs/4012345", probe); got != PageApplication {
		t.Fatalf("expected application page from form marker, got %s", got)
	}

	li := mustGet(t, models.PlatformLinkedIn)
	searchProbe := func(selector string) bool { return selector == ".jobs-search-results-list" }
	if got := li.ClassifyPage("https://www.linkedin.com/feed/", searchProbe); got != PageSearch {
		t.Fatalf("expected search page from DOM marker, got %s", got)
	}
}

func TestExtractJobID(t *testing.T) {
	cases := []struct {
		platform models.Platform
		url      string
		want     string
	}{
		{models.PlatformAshby, ashbyJob + "/application", "3f2a9b1c-1d2e-4f50-8a6b-7c8d9e0f1a2b"},
		{models.PlatformWorkable, "https://apply.workable.com/acme/j/1A2B3C4D5E/apply", "1A2B3C4D5E"},
		{models.PlatformBreezy, "https://acme.breezy.hr/p/8f1e2d3c4b5a-senior-engineer", "8f1e2d3c4b5a"},
		{models.PlatformGreenhouse, "https://job-boards.greenhouse.io/acme/jobs/4012345?gh_src=x", "4012345"},
		{models.PlatformLinkedIn, "https://www.linkedin.com/jobs/view/3901234567/", "3901234567"},
	}
	for _, tc := range cases {
		got, ok := mustGet(t, tc.platform).ExtractJobID(tc.url)
		if !ok || got != tc.want {
			t.Fatalf("%s ExtractJobID(%q) = %q ok=%v, want %q", tc.platform, tc.url, got, ok, tc.want)
		}
	}
	if _, ok := mustGet(t, models.PlatformLinkedIn).ExtractJobID("https://www.linkedin.com/feed/"); ok {
		t.Fatal("expected no job id for non-job URL")
	}
}

func TestNormalizeDelegatesToLedger(t *testing.T) {
	a := mustGet(t, models.PlatformWorkable)
	if got := a.Normalize("https://apply.workable.com/acme/j/1A2B3C4D5E/apply/?utm_source=li"); got != "https://apply.workable.com/acme/j/1A2B3C4D5E" {
		t.Fatalf("unexpected normalized url: %s", got)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	if len(r.Names()) != 5 {
		t.Fatalf("expected 5 platforms, got %v", r.Names())
	}
	if _, err := r.Get("monster"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
	a, ok := r.ForJobURL("https://boards.greenhouse.io/acme/jobs/1")
	if !ok || a.Name() != models.PlatformGreenhouse {
		t.Fatalf("unexpected adapter for greenhouse url: %v", a)
	}
}

func TestNewValidatesSpec(t *testing.T) {
	if _, err := New(Spec{}); err == nil || !strings.Contains(err.Error(), "requires a name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
	if _, err := New(Spec{Name: "x"}); err == nil {
		t.Fatal("expected error for missing job pattern")
	}
	if _, err := New(Spec{Name: "x", JobURL: regexp.MustCompile(`/jobs/(\d+)`), JobIDGroup: 2}); err == nil {
		t.Fatal("expected error for out-of-range group")
	}
}

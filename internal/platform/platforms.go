package platform

import (
	"regexp"
	"sort"

	"github.com/cockroachdb/errors"

	"careerpilot/internal/models"
)

var closedMarkers = []string{
	"no longer accepting applications",
	"this job is no longer available",
	"position has been filled",
	"job not found",
}

var appliedMarkers = []string{
	"you have already applied",
	"application submitted",
	"already applied",
}

// Specs returns the built-in platform specs.
func Specs() []Spec {
	return []Spec{
		{
			Name:           models.PlatformAshby,
			JobURL:         regexp.MustCompile(`(?i)^https?://jobs\.ashbyhq\.com/[^/?#]+/([0-9a-f]{8}-[0-9a-f-]{27,})`),
			JobIDGroup:     1,
			ApplicationURL: regexp.MustCompile(`(?i)^https?://jobs\.ashbyhq\.com/[^/?#]+/[0-9a-f-]{36}/application`),
			SearchURL:      regexp.MustCompile(`(?i)^https?://jobs\.ashbyhq\.com/[^/?#]+/?(\?.*)?$`),
			SearchMarker:   "a[href*='jobs.ashbyhq.com']",
			Selectors: Selectors{
				Form:           "form, ._applicationForm_",
				Submit:         "button[type='submit'], button.ashby-application-form-submit-button",
				ClosedMarkers:  closedMarkers,
				AppliedMarkers: appliedMarkers,
			},
		},
		{
			Name:           models.PlatformWorkable,
			JobURL:         regexp.MustCompile(`(?i)^https?://apply\.workable\.com/[^/?#]+/j/([a-z0-9]+)`),
			JobIDGroup:     1,
			ApplicationURL: regexp.MustCompile(`(?i)^https?://apply\.workable\.com/[^/?#]+/j/[a-z0-9]+/apply`),
			SearchURL:      regexp.MustCompile(`(?i)^https?://(apply\.workable\.com/[^/?#]+/?(\?.*)?$|jobs\.workable\.com/search)`),
			SearchMarker:   "a[href*='apply.workable.com']",
			Selectors: Selectors{
				Form:           "form[data-ui='application-form'], form",
				Submit:         "button[data-ui='apply-button'], button[type='submit']",
				ClosedMarkers:  closedMarkers,
				AppliedMarkers: appliedMarkers,
			},
		},
		{
			Name:           models.PlatformBreezy,
			JobURL:         regexp.MustCompile(`(?i)^https?://[a-z0-9-]+\.breezy\.hr/p/([a-z0-9]+)(-[^/?#]*)?`),
			JobIDGroup:     1,
			ApplicationURL: regexp.MustCompile(`(?i)^https?://[a-z0-9-]+\.breezy\.hr/p/[^/?#]+/apply`),
			SearchURL:      regexp.MustCompile(`(?i)^https?://[a-z0-9-]+\.breezy\.hr/?(\?.*)?$`),
			SearchMarker:   "a[href*='.breezy.hr/p/']",
			Selectors: Selectors{
				Form:           "form.application-form, form",
				Submit:         "button.submit-button, button[type='submit']",
				ClosedMarkers:  closedMarkers,
				AppliedMarkers: appliedMarkers,
			},
		},
		{
			Name:              models.PlatformGreenhouse,
			JobURL:            regexp.MustCompile(`(?i)^https?://(boards|job-boards)\.greenhouse\.io/[^/?#]+/jobs/(\d+)`),
			JobIDGroup:        2,
			SearchURL:         regexp.MustCompile(`(?i)^https?://(boards|job-boards)\.greenhouse\.io/[^/?#]+/?(\?.*)?$`),
			SearchMarker:      "a[href*='greenhouse.io']",
			ApplicationMarker: "#application_form, form#application-form",
			Selectors: Selectors{
				Form:           "#application_form, form#application-form",
				Submit:         "#submit_app, button[type='submit']",
				ClosedMarkers:  closedMarkers,
				AppliedMarkers: appliedMarkers,
			},
		},
		{
			Name:              models.PlatformLinkedIn,
			JobURL:            regexp.MustCompile(`(?i)^https?://([a-z]+\.)?linkedin\.com/jobs/view/(\d+)`),
			JobIDGroup:        2,
			SearchURL:         regexp.MustCompile(`(?i)^https?://([a-z]+\.)?linkedin\.com/jobs/(search|collections)`),
			SearchMarker:      ".jobs-search-results-list",
			ApplicationMarker: ".jobs-easy-apply-modal",
			Selectors: Selectors{
				Form:           ".jobs-easy-apply-modal form",
				Submit:         "button[aria-label='Submit application']",
				ClosedMarkers:  closedMarkers,
				AppliedMarkers: appliedMarkers,
			},
		},
	}
}

// Registry looks adapters up by platform name.
type Registry struct {
	adapters map[models.Platform]Adapter
}

// NewRegistry builds a registry; later adapters replace earlier ones with the same name.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// DefaultRegistry returns a registry with all built-in platforms.
func DefaultRegistry() *Registry {
	specs := Specs()
	adapters := make([]Adapter, 0, len(specs))
	for _, spec := range specs {
		a, err := New(spec)
		if err != nil {
			panic(err)
		}
		adapters = append(adapters, a)
	}
	return NewRegistry(adapters...)
}

// Get returns the adapter for a platform.
func (r *Registry) Get(p models.Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, errors.Newf("unknown platform %q", p)
	}
	return a, nil
}

// ForJobURL returns the first adapter (by name) that recognizes rawURL as a job URL.
func (r *Registry) ForJobURL(rawURL string) (Adapter, bool) {
	for _, name := range r.Names() {
		if a := r.adapters[name]; a.MatchesJobURL(rawURL) {
			return a, true
		}
	}
	return nil, false
}

// Names lists registered platforms in sorted order.
func (r *Registry) Names() []models.Platform {
	names := make([]models.Platform, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Package platform holds the per-site policy the coordinator and workers share:
// URL recognition, page classification and job-ID extraction. Sites differ only
// in the data of their Spec; there is a single implementation.
package platform

import (
	"regexp"

	"github.com/cockroachdb/errors"

	"careerpilot/internal/ledger"
	"careerpilot/internal/models"
)

// PageType is the worker-side classification of the page a tab shows.
type PageType string

const (
	PageSearch       PageType = "SEARCH_PAGE"
	PageJobListing   PageType = "JOB_LISTING_PAGE"
	PageApplication  PageType = "APPLICATION_PAGE"
	PageUnrecognized PageType = "UNRECOGNIZED"
)

// Probe reports whether a CSS selector matches the current DOM. A nil Probe
// limits classification to the URL.
type Probe func(selector string) bool

// Selectors is the DOM data the browser submit filler works from.
type Selectors struct {
	Form           string
	Submit         string
	ClosedMarkers  []string
	AppliedMarkers []string
}

// Adapter is the per-platform policy object.
type Adapter interface {
	Name() models.Platform
	MatchesJobURL(rawURL string) bool
	ClassifyPage(rawURL string, probe Probe) PageType
	ExtractJobID(rawURL string) (string, bool)
	Normalize(rawURL string) string
	Selectors() Selectors
}

// Spec describes one platform.
type Spec struct {
	Name              models.Platform
	JobURL            *regexp.Regexp
	JobIDGroup        int
	ApplicationURL    *regexp.Regexp
	SearchURL         *regexp.Regexp
	SearchMarker      string
	ApplicationMarker string
	Selectors         Selectors
}

// googleSearch matches the search results page workers scan for every platform.
var googleSearch = regexp.MustCompile(`(?i)^https?://(www\.)?google\.[a-z.]+/search`)

type specAdapter struct {
	spec Spec
}

// New builds an Adapter from a Spec.
func New(spec Spec) (Adapter, error) {
	if spec.Name == "" {
		return nil, errors.New("platform spec requires a name")
	}
	if spec.JobURL == nil {
		return nil, errors.Newf("platform %s: job url pattern is required", spec.Name)
	}
	if spec.JobIDGroup < 0 || spec.JobIDGroup > spec.JobURL.NumSubexp() {
		return nil, errors.Newf("platform %s: job id group %d out of range", spec.Name, spec.JobIDGroup)
	}
	return &specAdapter{spec: spec}, nil
}

func (a *specAdapter) Name() models.Platform {
	return a.spec.Name
}

func (a *specAdapter) Selectors() Selectors {
	return a.spec.Selectors
}

func (a *specAdapter) MatchesJobURL(rawURL string) bool {
	return a.spec.JobURL.MatchString(rawURL)
}

func (a *specAdapter) ExtractJobID(rawURL string) (string, bool) {
	m := a.spec.JobURL.FindStringSubmatch(rawURL)
	if m == nil || a.spec.JobIDGroup == 0 || m[a.spec.JobIDGroup] == "" {
		return "", false
	}
	return m[a.spec.JobIDGroup], true
}

func (a *specAdapter) Normalize(rawURL string) string {
	return ledger.Normalize(rawURL)
}

func (a *specAdapter) ClassifyPage(rawURL string, probe Probe) PageType {
	has := func(selector string) bool {
		return probe != nil && selector != "" && probe(selector)
	}
	isJob := a.spec.JobURL.MatchString(rawURL)

	switch {
	case a.spec.ApplicationURL != nil && a.spec.ApplicationURL.MatchString(rawURL):
		return PageApplication
	case isJob && has(a.spec.ApplicationMarker):
		return PageApplication
	case isJob:
		return PageJobListing
	case googleSearch.MatchString(rawURL):
		return PageSearch
	case a.spec.SearchURL != nil && a.spec.SearchURL.MatchString(rawURL):
		return PageSearch
	case has(a.spec.SearchMarker):
		return PageSearch
	default:
		return PageUnrecognized
	}
}

package ledger

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters that never identify a job posting.
var trackingParams = map[string]struct{}{
	"gh_src":       {},
	"gclid":        {},
	"fbclid":       {},
	"ref":          {},
	"refid":        {},
	"trk":          {},
	"trackingid":   {},
	"source":       {},
	"src":          {},
	"lever-source": {},
	"mc_cid":       {},
	"mc_eid":       {},
}

// suffixes stripped from job paths so that listing and form URLs collapse.
var applySuffixes = []string{"/application", "/apply"}

// Normalize returns the dedup key for a job URL. Two URLs are duplicates iff
// their normalized forms are equal.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	path := strings.TrimRight(u.Path, "/")
	for _, suffix := range applySuffixes {
		if strings.HasSuffix(strings.ToLower(path), suffix) {
			path = strings.TrimRight(path[:len(path)-len(suffix)], "/")
			break
		}
	}
	u.Path = path
	u.RawPath = ""

	query := u.Query()
	for key := range query {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			query.Del(key)
			continue
		}
		if _, ok := trackingParams[lower]; ok {
			query.Del(key)
		}
	}
	u.RawQuery = query.Encode()
	u.ForceQuery = false

	return u.String()
}

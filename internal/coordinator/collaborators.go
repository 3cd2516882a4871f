package coordinator

import (
	"context"

	"careerpilot/internal/models"
)

//go:generate mockgen -destination=../../mocks/mock_collaborators.go -package=mocks careerpilot/internal/coordinator ProfileService,Tracker,Notifier

// ProfileService fetches applicant profiles. Calls may be slow; results are cached per session.
type ProfileService interface {
	GetUserDetails(ctx context.Context, userID string) (models.Profile, error)
}

// Tracker records applied jobs. Every call is best-effort.
type Tracker interface {
	CheckAlreadyApplied(ctx context.Context, url string, platform models.Platform) (bool, error)
	SaveAppliedJob(ctx context.Context, record models.AppliedJobRecord) error
	IncrementApplicationCount(ctx context.Context, userID string) error
}

// Notifier delivers the SEARCH_NEXT directive to a session's search-page worker
// and returns once the worker acknowledged it. An error means the worker is unreachable.
type Notifier interface {
	SearchNext(ctx context.Context, sessionID, tab string, directive models.SearchNextDirective) error
}

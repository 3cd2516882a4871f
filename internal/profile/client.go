// Package profile fetches applicant profiles from the User-Profile service.
package profile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"careerpilot/internal/models"
)

const defaultTimeout = 10 * time.Second

// UserAgent identifies the coordinator to the profile service.
const UserAgent = "careerpilot-coordinator/1.0"

// Client calls GET {base}/users/{id}.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a Client. A nil httpClient gets one with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// GetUserDetails implements coordinator.ProfileService.
func (c *Client) GetUserDetails(ctx context.Context, userID string) (models.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Profile{}, errors.New("user id is required")
	}
	endpoint := c.base + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Profile{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Profile{}, errors.Wrap(err, "fetch profile")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.Profile{}, errors.Wrap(err, "read profile")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Profile{}, errors.Newf("unexpected status %d for %s", resp.StatusCode, endpoint)
	}
	var p models.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Profile{}, errors.Wrap(err, "decode profile")
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return p, nil
}

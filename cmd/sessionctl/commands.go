package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"careerpilot/common"
	"careerpilot/internal/models"
)

type apiClient struct {
	base string
	http *http.Client
}

// apiError is the admin API's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Code != "" {
			return errors.Newf("%s: %s", ae.Code, ae.Message)
		}
		return errors.Newf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func newRootCmd() *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
	)
	client := &apiClient{}

	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Operate careerpilot application sessions",
		Long: `sessionctl talks to the coordinator admin API.

Examples:
  sessionctl start --user u1 --platform ashby --limit 5
  sessionctl status 6b1c...
  sessionctl links 6b1c...
  sessionctl stop 6b1c...`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			client.base = strings.TrimRight(apiURL, "/")
			client.http = &http.Client{Timeout: timeout}
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", common.GetEnv("CAREERPILOT_API", "http://localhost:8080"), "coordinator admin API base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(newStartCmd(client), newStopCmd(client), newStatusCmd(client), newLinksCmd(client))
	return root
}

func newStartCmd(client *apiClient) *cobra.Command {
	var req models.StartSessionRequest
	var platform string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Platform = models.Platform(strings.ToLower(platform))
			var state models.SessionState
			if err := client.do(cmd.Context(), http.MethodPost, "/sessions", req, &state); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
	cmd.Flags().StringVar(&req.SessionID, "id", "", "session id (generated when empty)")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user id")
	cmd.Flags().StringVar(&platform, "platform", string(models.PlatformLinkedIn), "ashby, workable, breezy, greenhouse or linkedin")
	cmd.Flags().StringVar(&req.WindowID, "window", "", "browser window id")
	cmd.Flags().IntVar(&req.SearchConfig.Limit, "limit", 10, "applications to submit")
	cmd.Flags().StringVar(&req.SearchConfig.LinkPattern, "link-pattern", "", "regexp candidate links must match")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newStopCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var state models.SessionState
			if err := client.do(cmd.Context(), http.MethodDelete, sessionPath(args[0]), nil, &state); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
}

func newStatusCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var state models.SessionState
			if err := client.do(cmd.Context(), http.MethodGet, sessionPath(args[0]), nil, &state); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		},
	}
}

func newLinksCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "links <session-id>",
		Short: "List the links a session has submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var links []models.SubmittedLink
			if err := client.do(cmd.Context(), http.MethodGet, sessionPath(args[0])+"/links", nil, &links); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range links {
				line := fmt.Sprintf("%s\t%s\t%s", l.Timestamp.Format(time.RFC3339), l.Status, l.URL)
				if detail := l.Error + l.Reason; detail != "" {
					line += "\t" + detail
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func sessionPath(id string) string {
	return "/sessions/" + url.PathEscape(id)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

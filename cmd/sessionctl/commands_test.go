package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"careerpilot/internal/models"
)

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--api", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStartPostsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.StartSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.UserID != "u1" || req.Platform != models.PlatformAshby || req.SearchConfig.Limit != 3 {
			t.Errorf("unexpected request body: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.SessionState{SessionID: "s-1", Phase: models.PhaseIdle})
	}))
	defer srv.Close()

	out, err := run(t, srv, "start", "--user", "u1", "--platform", "Ashby", "--limit", "3")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(out, `"sessionId": "s-1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestStartRequiresUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	}))
	defer srv.Close()
	if _, err := run(t, srv, "start"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}

func TestStopReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/sessions/s-9" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NO_ACTIVE_SESSION","message":"s-9: no active session"}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "stop", "s-9")
	if err == nil || !strings.Contains(err.Error(), "NO_ACTIVE_SESSION") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestLinksPrintsRows(t *testing.T) {
	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/s-1/links" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]models.SubmittedLink{
			{URL: "https://jobs.ashbyhq.com/acme/1", Status: models.LinkSuccess, Timestamp: at},
			{URL: "https://jobs.ashbyhq.com/acme/2", Status: models.LinkSkipped, Timestamp: at, Reason: "posting closed"},
		})
	}))
	defer srv.Close()

	out, err := run(t, srv, "links", "s-1")
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", out)
	}
	if !strings.HasSuffix(lines[1], "\tposting closed") || !strings.HasPrefix(lines[0], "2026-05-02T09:30:00Z\t") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStatusUnexpectedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := run(t, srv, "status", "s-1")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

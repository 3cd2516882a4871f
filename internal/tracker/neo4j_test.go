package tracker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang/mock/gomock"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"careerpilot/internal/models"
	"careerpilot/mocks"
)

func newTrackerWithMocks(t *testing.T) (*Neo4jTracker, *mocks.MockDriverSessioner, *mocks.MockSessionRunner) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	driver := mocks.NewMockDriverSessioner(ctrl)
	session := mocks.NewMockSessionRunner(ctrl)
	session.EXPECT().Close(gomock.Any()).Return(nil).AnyTimes()
	return New(driver, "", nil), driver, session
}

func TestBuildCheckQueryNormalizesURL(t *testing.T) {
	query, params := buildCheckQuery("https://Jobs.AshbyHQ.com/acme/abc/application?utm_source=x", models.PlatformAshby)
	if !strings.Contains(query, "APPLIED_TO") || !strings.Contains(query, "AS applied") {
		t.Fatalf("unexpected query: %s", query)
	}
	if params["key"] != "https://jobs.ashbyhq.com/acme/abc" || params["platform"] != "ashby" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestBuildSaveQuery(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := models.AppliedJobRecord{
		UserID:    "user-1",
		SessionID: "s-1",
		Platform:  models.PlatformGreenhouse,
		URL:       "https://boards.greenhouse.io/acme/jobs/42",
		Title:     "SRE",
		Company:   "Acme",
		AppliedAt: at,
	}
	query, params := buildSaveQuery(record)
	if !strings.Contains(query, "MERGE (j)-[:POSTED_BY]->(c)") {
		t.Fatalf("expected company edge: %s", query)
	}
	if params["company"] != "Acme" || params["title"] != "SRE" || params["job_id"] != nil {
		t.Fatalf("unexpected params: %v", params)
	}
	if params["applied_at"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected applied_at: %v", params["applied_at"])
	}

	record.Company = ""
	query, params = buildSaveQuery(record)
	if strings.Contains(query, "Company") {
		t.Fatalf("expected no company merge: %s", query)
	}
	if _, ok := params["company"]; ok {
		t.Fatalf("unexpected company param")
	}
}

func TestBuildIncrementQuery(t *testing.T) {
	query, params := buildIncrementQuery("user-1")
	if !strings.Contains(query, "application_count = coalesce(u.application_count, 0) + 1") {
		t.Fatalf("unexpected query: %s", query)
	}
	if params["user_id"] != "user-1" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestCheckAlreadyAppliedUsesReadSession(t *testing.T) {
	tracker, driver, session := newTrackerWithMocks(t)
	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cfg neo4j.SessionConfig) interface{} {
			if cfg.AccessMode != neo4j.AccessModeRead {
				t.Errorf("expected read access, got %v", cfg.AccessMode)
			}
			return session
		},
	)
	session.EXPECT().ExecuteRead(gomock.Any(), gomock.Any()).Return(true, nil)

	applied, err := tracker.CheckAlreadyApplied(context.Background(), "https://jobs.ashbyhq.com/acme/abc", models.PlatformAshby)
	if err != nil || !applied {
		t.Fatalf("expected applied, got %v err=%v", applied, err)
	}
}

func TestCheckAlreadyAppliedError(t *testing.T) {
	tracker, driver, session := newTrackerWithMocks(t)
	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).Return(session)
	session.EXPECT().ExecuteRead(gomock.Any(), gomock.Any()).Return(nil, errors.New("unavailable"))

	if _, err := tracker.CheckAlreadyApplied(context.Background(), "https://jobs.ashbyhq.com/acme/abc", models.PlatformAshby); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSaveAppliedJobUsesWriteSession(t *testing.T) {
	tracker, driver, session := newTrackerWithMocks(t)
	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cfg neo4j.SessionConfig) interface{} {
			if cfg.AccessMode != neo4j.AccessModeWrite {
				t.Errorf("expected write access, got %v", cfg.AccessMode)
			}
			return session
		},
	)
	session.EXPECT().ExecuteWrite(gomock.Any(), gomock.Any()).Return(nil, nil)

	err := tracker.SaveAppliedJob(context.Background(), models.AppliedJobRecord{
		UserID: "user-1",
		URL:    "https://jobs.ashbyhq.com/acme/abc",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestSaveAppliedJobValidates(t *testing.T) {
	tracker, _, _ := newTrackerWithMocks(t)
	if err := tracker.SaveAppliedJob(context.Background(), models.AppliedJobRecord{URL: "https://x.io"}); err == nil {
		t.Fatalf("expected error without user")
	}
}

func TestIncrementApplicationCountWrapsError(t *testing.T) {
	tracker, driver, session := newTrackerWithMocks(t)
	driver.EXPECT().NewSession(gomock.Any(), gomock.Any()).Return(session)
	session.EXPECT().ExecuteWrite(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	err := tracker.IncrementApplicationCount(context.Background(), "user-1")
	if err == nil || !strings.Contains(err.Error(), "user-1") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

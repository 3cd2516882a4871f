// Package tracker records submitted applications in Neo4j as
// (:User)-[:APPLIED_TO]->(:Job)-[:POSTED_BY]->(:Company).
package tracker

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"careerpilot/internal/graph"
	"careerpilot/internal/ledger"
	"careerpilot/internal/logger"
	"careerpilot/internal/models"
)

// Neo4jTracker implements coordinator.Tracker.
type Neo4jTracker struct {
	driver   graph.DriverSessioner
	database string
	log      *zap.Logger
}

// New builds a tracker. An empty database uses the server default.
func New(driver graph.DriverSessioner, database string, log *zap.Logger) *Neo4jTracker {
	return &Neo4jTracker{driver: driver, database: database, log: logger.Component(log, "tracker")}
}

// CheckAlreadyApplied reports whether any user has an APPLIED_TO edge to the job.
func (t *Neo4jTracker) CheckAlreadyApplied(ctx context.Context, url string, platform models.Platform) (bool, error) {
	query, params := buildCheckQuery(url, platform)
	res, err := t.runRead(ctx, query, params)
	if err != nil {
		return false, errors.Wrap(err, "check applied")
	}
	applied, _ := res.(bool)
	return applied, nil
}

// SaveAppliedJob merges the job and company and links them to the user.
func (t *Neo4jTracker) SaveAppliedJob(ctx context.Context, record models.AppliedJobRecord) error {
	if record.UserID == "" || record.URL == "" {
		return errors.New("applied job needs a user and a url")
	}
	query, params := buildSaveQuery(record)
	if err := t.runWrite(ctx, query, params); err != nil {
		return errors.Wrapf(err, "save applied job %s", record.URL)
	}
	t.log.Debug("applied job saved",
		zap.String(logger.FieldUserID, record.UserID),
		zap.String(logger.FieldURL, record.URL),
	)
	return nil
}

// IncrementApplicationCount bumps the user's application counter.
func (t *Neo4jTracker) IncrementApplicationCount(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	query, params := buildIncrementQuery(userID)
	if err := t.runWrite(ctx, query, params); err != nil {
		return errors.Wrapf(err, "increment application count for %s", userID)
	}
	return nil
}

func (t *Neo4jTracker) session(ctx context.Context, mode neo4j.AccessMode) graph.SessionRunner {
	return t.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: t.database})
}

func (t *Neo4jTracker) closeSession(ctx context.Context, s graph.SessionRunner) {
	if err := s.Close(ctx); err != nil {
		t.log.Warn("neo4j session close error", zap.Error(err))
	}
}

func (t *Neo4jTracker) runWrite(ctx context.Context, query string, params map[string]any) error {
	s := t.session(ctx, neo4j.AccessModeWrite)
	defer t.closeSession(ctx, s)

	_, err := s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

func (t *Neo4jTracker) runRead(ctx context.Context, query string, params map[string]any) (any, error) {
	s := t.session(ctx, neo4j.AccessModeRead)
	defer t.closeSession(ctx, s)

	return s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		applied, _ := record.Get("applied")
		return applied, nil
	})
}

func buildCheckQuery(url string, platform models.Platform) (string, map[string]any) {
	query := "MATCH (:User)-[:APPLIED_TO]->(j:Job {key: $key}) " +
		"WHERE j.platform = $platform " +
		"RETURN count(j) > 0 AS applied"
	return query, map[string]any{
		"key":      ledger.Normalize(url),
		"platform": string(platform),
	}
}

func buildSaveQuery(record models.AppliedJobRecord) (string, map[string]any) {
	query := "MERGE (u:User {id: $user_id}) " +
		"MERGE (j:Job {key: $key}) " +
		"SET j.url = $url, j.platform = $platform, " +
		"j.job_id = coalesce($job_id, j.job_id), " +
		"j.title = coalesce($title, j.title), " +
		"j.location = coalesce($location, j.location) " +
		"MERGE (u)-[r:APPLIED_TO]->(j) " +
		"SET r.session_id = $session_id, r.applied_at = $applied_at"
	if record.Company != "" {
		query += " MERGE (c:Company {name: $company}) MERGE (j)-[:POSTED_BY]->(c)"
	}

	appliedAt := record.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}
	params := map[string]any{
		"user_id":    record.UserID,
		"key":        ledger.Normalize(record.URL),
		"url":        record.URL,
		"platform":   string(record.Platform),
		"job_id":     nullable(record.JobID),
		"title":      nullable(record.Title),
		"location":   nullable(record.Location),
		"session_id": record.SessionID,
		"applied_at": appliedAt.Format(time.RFC3339),
	}
	if record.Company != "" {
		params["company"] = record.Company
	}
	return query, params
}

func buildIncrementQuery(userID string) (string, map[string]any) {
	query := "MERGE (u:User {id: $user_id}) " +
		"SET u.application_count = coalesce(u.application_count, 0) + 1"
	return query, map[string]any{"user_id": userID}
}

// nullable maps empty strings to nil so coalesce keeps the stored value.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

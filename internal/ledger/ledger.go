// Package ledger records the job URLs a session has seen and their outcome,
// keyed by normalized URL, for duplicate suppression.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"careerpilot/internal/models"
)

// Ledger is the per-session append-only record of job URLs.
//
// A terminal row replaces the PROCESSING row for the same normalized URL, so at
// most one row exists per key.
type Ledger interface {
	IsDuplicate(ctx context.Context, sessionID, url string) (bool, error)
	Lookup(ctx context.Context, sessionID, url string) (models.SubmittedLink, bool, error)
	MarkProcessing(ctx context.Context, sessionID, url string) error
	MarkTerminal(ctx context.Context, sessionID, url string, outcome models.Outcome) error
	Snapshot(ctx context.Context, sessionID string) ([]models.SubmittedLink, error)
}

// ProcessingRow builds the PROCESSING row for url.
func ProcessingRow(url string, now time.Time) models.SubmittedLink {
	return models.SubmittedLink{
		URL:           url,
		NormalizedURL: Normalize(url),
		Status:        models.LinkProcessing,
		Timestamp:     now,
	}
}

// TerminalRow builds the terminal row for an outcome.
func TerminalRow(url string, outcome models.Outcome, now time.Time) models.SubmittedLink {
	row := models.SubmittedLink{
		URL:           url,
		NormalizedURL: Normalize(url),
		Status:        outcome.LinkStatus(),
		Timestamp:     now,
	}
	switch row.Status {
	case models.LinkSuccess:
		row.Payload = outcome.Job
	case models.LinkError:
		row.Error = outcome.Error
	case models.LinkSkipped:
		row.Reason = outcome.Reason
	}
	return row
}

// IsDuplicateRow reports whether an existing row blocks a new attempt.
func IsDuplicateRow(row models.SubmittedLink) bool {
	return row.Status.Terminal()
}

func sortRows(rows []models.SubmittedLink) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].NormalizedURL < rows[j].NormalizedURL
		}
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu   sync.RWMutex
	rows map[string]map[string]models.SubmittedLink
	now  func() time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		rows: make(map[string]map[string]models.SubmittedLink),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryLedger) IsDuplicate(ctx context.Context, sessionID, url string) (bool, error) {
	row, ok, err := l.Lookup(ctx, sessionID, url)
	if err != nil || !ok {
		return false, err
	}
	return IsDuplicateRow(row), nil
}

func (l *MemoryLedger) Lookup(_ context.Context, sessionID, url string) (models.SubmittedLink, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	row, ok := l.rows[sessionID][Normalize(url)]
	return row, ok, nil
}

func (l *MemoryLedger) MarkProcessing(_ context.Context, sessionID, url string) error {
	l.put(sessionID, ProcessingRow(url, l.now()))
	return nil
}

func (l *MemoryLedger) MarkTerminal(_ context.Context, sessionID, url string, outcome models.Outcome) error {
	l.put(sessionID, TerminalRow(url, outcome, l.now()))
	return nil
}

func (l *MemoryLedger) Snapshot(_ context.Context, sessionID string) ([]models.SubmittedLink, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rows := make([]models.SubmittedLink, 0, len(l.rows[sessionID]))
	for _, row := range l.rows[sessionID] {
		rows = append(rows, row)
	}
	sortRows(rows)
	return rows, nil
}

func (l *MemoryLedger) put(sessionID string, row models.SubmittedLink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rows[sessionID] == nil {
		l.rows[sessionID] = make(map[string]models.SubmittedLink)
	}
	l.rows[sessionID][row.NormalizedURL] = row
}

package ledger

import (
	"context"
	"testing"
	"time"

	"careerpilot/internal/models"
)

func TestMemoryLedgerProcessingReplacedByTerminal(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	if err := l.MarkProcessing(ctx, "s1", "https://x.com/jobs/1?utm_source=g"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	dup, err := l.IsDuplicate(ctx, "s1", "https://x.com/jobs/1")
	if err != nil || dup {
		t.Fatalf("processing row must not count as duplicate: dup=%v err=%v", dup, err)
	}

	outcome := models.Success("https://x.com/jobs/1?utm_source=g", models.JobMetadata{Title: "Engineer"})
	if err := l.MarkTerminal(ctx, "s1", outcome.URL, outcome); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}

	rows, _ := l.Snapshot(ctx, "s1")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].NormalizedURL != "https://x.com/jobs/1" || rows[0].Status != models.LinkSuccess {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if rows[0].Payload == nil || rows[0].Payload.Title != "Engineer" {
		t.Fatalf("expected payload on success row: %+v", rows[0])
	}

	dup, _ = l.IsDuplicate(ctx, "s1", "https://x.com/jobs/1/")
	if !dup {
		t.Fatal("expected trailing-slash variant to be a duplicate")
	}
}

func TestMemoryLedgerTerminalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	outcome := models.Failure("https://x.com/jobs/2", "boom")
	_ = l.MarkProcessing(ctx, "s1", outcome.URL)
	_ = l.MarkTerminal(ctx, "s1", outcome.URL, outcome)
	_ = l.MarkTerminal(ctx, "s1", outcome.URL, outcome)

	rows, _ := l.Snapshot(ctx, "s1")
	if len(rows) != 1 || rows[0].Status != models.LinkError || rows[0].Error != "boom" {
		t.Fatalf("unexpected rows after double terminal: %+v", rows)
	}
}

func TestMemoryLedgerSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	_ = l.MarkTerminal(ctx, "s1", "https://x.com/jobs/3", models.Skipped("https://x.com/jobs/3", "closed"))
	if dup, _ := l.IsDuplicate(ctx, "s2", "https://x.com/jobs/3"); dup {
		t.Fatal("ledger rows leaked across sessions")
	}
}

func TestSnapshotOrderedByTimestamp(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	_ = l.MarkProcessing(ctx, "s1", "https://x.com/jobs/b")
	_ = l.MarkProcessing(ctx, "s1", "https://x.com/jobs/a")

	rows, _ := l.Snapshot(ctx, "s1")
	if len(rows) != 2 || rows[0].URL != "https://x.com/jobs/b" {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestTerminalRowFields(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	row := TerminalRow("https://x.com/jobs/4", models.Skipped("https://x.com/jobs/4", "already applied"), now)
	if row.Status != models.LinkSkipped || row.Reason != "already applied" || row.Error != "" || row.Payload != nil {
		t.Fatalf("unexpected skipped row: %+v", row)
	}
}

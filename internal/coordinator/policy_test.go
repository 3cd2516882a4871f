package coordinator

import (
	"testing"
	"time"

	"careerpilot/internal/models"
)

func TestPolicyNext(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		kind      models.OutcomeKind
		errors    int
		wantDelay time.Duration
		wantCount int
	}{
		{"first error", models.OutcomeError, 0, 3000 * time.Millisecond, 1},
		{"second error", models.OutcomeError, 1, 4000 * time.Millisecond, 2},
		{"capped", models.OutcomeError, 8, 10000 * time.Millisecond, 9},
		{"skip keeps count", models.OutcomeSkipped, 3, 1000 * time.Millisecond, 3},
		{"success resets", models.OutcomeSuccess, 4, 1500 * time.Millisecond, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, count := p.Next(tt.kind, tt.errors)
			if delay != tt.wantDelay || count != tt.wantCount {
				t.Fatalf("expected (%s, %d), got (%s, %d)", tt.wantDelay, tt.wantCount, delay, count)
			}
		})
	}
}

func TestPolicySkipCountsAsError(t *testing.T) {
	p := DefaultPolicy()
	p.SkipCountsAsError = true
	delay, count := p.Next(models.OutcomeSkipped, 0)
	if delay != 3000*time.Millisecond || count != 1 {
		t.Fatalf("expected skip to follow error formula, got (%s, %d)", delay, count)
	}
}

func TestPlatformPolicyOverride(t *testing.T) {
	slow := DefaultPolicy()
	slow.Success = 5 * time.Second
	cfg := Config{PlatformPolicies: map[models.Platform]Policy{models.PlatformLinkedIn: slow}}.withDefaults()

	if got := cfg.policyFor(models.PlatformLinkedIn).Success; got != 5*time.Second {
		t.Fatalf("expected override, got %s", got)
	}
	if got := cfg.policyFor(models.PlatformAshby).Success; got != 1500*time.Millisecond {
		t.Fatalf("expected default, got %s", got)
	}
}

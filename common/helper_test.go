package common

import (
	"testing"
	"time"
)

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("CAREERPILOT_TEST_ENV", "")
	if got := GetEnv("CAREERPILOT_TEST_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("CAREERPILOT_TEST_ENV", "set")
	if got := GetEnv("CAREERPILOT_TEST_ENV", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestParseDurationInvalidUsesFallback(t *testing.T) {
	fallback := 5 * time.Minute
	if got := ParseDuration("not-a-duration", fallback); got != fallback {
		t.Fatalf("expected fallback %s, got %s", fallback, got)
	}
	if got := ParseDuration("2h", fallback); got != 2*time.Hour {
		t.Fatalf("expected 2h, got %s", got)
	}
}

func TestParseIntInvalidUsesFallback(t *testing.T) {
	if got := ParseInt("nope", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestParseBool(t *testing.T) {
	cases := map[string]bool{"1": true, "TRUE": true, "yes": true, "0": false, "false": false, "No": false}
	for in, want := range cases {
		if got := ParseBool(in, !want); got != want {
			t.Fatalf("ParseBool(%q) = %v, want %v", in, got, want)
		}
	}
	if got := ParseBool("maybe", true); !got {
		t.Fatal("expected fallback for unknown value")
	}
}

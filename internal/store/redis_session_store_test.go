package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"careerpilot/internal/models"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	val, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	default:
		f.values[key] = fmt.Sprint(v)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Close() error { return nil }

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := NewRedisSessionStoreWithClient(kv, "session:", 24*time.Hour)

	state := models.SessionState{
		SessionID:    "s1",
		UserID:       "u1",
		Platform:     models.PlatformAshby,
		SearchConfig: models.SearchConfig{Limit: 2},
		Phase:        models.PhaseSearching,
	}
	if err := s.SetState(ctx, state); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if kv.ttls["session:s1"] != 24*time.Hour {
		t.Fatalf("expected ttl, got %s", kv.ttls["session:s1"])
	}

	got, ok, err := s.GetState(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("GetState: ok=%v err=%v", ok, err)
	}
	if got.UserID != "u1" || got.SearchConfig.Limit != 2 || got.IsProcessing {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestRedisSessionStoreProcessingFlagOverrides(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := NewRedisSessionStoreWithClient(kv, "session:", 0)

	_ = s.SetState(ctx, models.SessionState{SessionID: "s1"})
	if err := s.SetProcessingFlag(ctx, "s1", true); err != nil {
		t.Fatalf("SetProcessingFlag: %v", err)
	}
	got, _, _ := s.GetState(ctx, "s1")
	if !got.IsProcessing {
		t.Fatal("expected processing flag to override record")
	}
}

func TestRedisSessionStoreNotFound(t *testing.T) {
	s := NewRedisSessionStoreWithClient(newFakeKV(), "session:", 0)
	_, ok, err := s.GetState(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("expected not found, got ok=%v err=%v", ok, err)
	}
}

func TestRedisSessionStoreGetError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("redis down")
	s := NewRedisSessionStoreWithClient(kv, "session:", 0)
	if _, _, err := s.GetState(context.Background(), "s1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()
	_ = s.SetState(ctx, models.SessionState{SessionID: "s1"})
	_ = s.SetProcessingFlag(ctx, "s1", true)
	_ = s.SetProcessingFlag(ctx, "missing", true)

	got, ok, _ := s.GetState(ctx, "s1")
	if !ok || !got.IsProcessing {
		t.Fatalf("unexpected state: %+v ok=%v", got, ok)
	}
	if _, ok, _ := s.GetState(ctx, "missing"); ok {
		t.Fatal("flag must not create a record")
	}
}

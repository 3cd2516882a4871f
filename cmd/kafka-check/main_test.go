package main

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestMissingTopics(t *testing.T) {
	parts := []kafka.Partition{
		{Topic: "careerpilot.coordinator", ID: 0},
		{Topic: "careerpilot.coordinator", ID: 1},
		{Topic: "other", ID: 0},
	}
	got := missingTopics(parts, []string{"careerpilot.workers", "careerpilot.coordinator", "", "a.topic"})
	want := []string{"a.topic", "careerpilot.workers"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := missingTopics(parts, []string{"other"}); len(got) != 0 {
		t.Fatalf("expected none missing, got %v", got)
	}
}

package main

import (
	"context"
	"testing"
	"time"

	"autoblog/app/internal/config"
	"autoblog/app/internal/history"
	"autoblog/app/internal/topics"
)

type fakeStore struct {
	keys []string
}

func (f *fakeStore) RecentKeys(context.Context, time.Duration, int) ([]string, error) {
	return f.keys, nil
}

func (f *fakeStore) Record(context.Context, *history.Record) error {
	return nil
}

func (f *fakeStore) SuccessOn(context.Context, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeStore) Recent(context.Context, int) ([]history.Record, error) {
	return nil, nil
}

func TestBuildInputWithExplicitTopic(t *testing.T) {
	t.Parallel()

	flags := cliFlags{topic: "Custom automation topic", pillar: "consulting", draft: true}
	input, err := buildInput(context.Background(), flags, &config.Config{}, &fakeStore{}, time.Now())
	if err != nil {
		t.Fatalf("buildInput returned error: %v", err)
	}

	if input.Topic != "Custom automation topic" || input.Pillar != "consulting" {
		t.Errorf("unexpected input %+v", input)
	}

	if input.Template == "" {
		t.Errorf("expected template defaulted from the pillar")
	}

	if input.Publish {
		t.Errorf("expected draft run to not publish")
	}
}

func TestBuildInputRejectsUnknownPillar(t *testing.T) {
	t.Parallel()

	flags := cliFlags{topic: "Custom topic", pillar: "nonsense"}
	if _, err := buildInput(context.Background(), flags, &config.Config{}, &fakeStore{}, time.Now()); err == nil {
		t.Fatalf("expected error for unknown pillar")
	}
}

func TestBuildInputRotationFollowsWeekday(t *testing.T) {
	t.Parallel()

	// 2026-03-02 is a Monday, the rotation's ai-automation slot.
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	flags := cliFlags{rotate: true}
	input, err := buildInput(context.Background(), flags, &config.Config{}, &fakeStore{}, monday)
	if err != nil {
		t.Fatalf("buildInput returned error: %v", err)
	}

	if input.Pillar != "ai-automation" {
		t.Errorf("expected Monday rotation pillar ai-automation, got %q", input.Pillar)
	}

	again, err := buildInput(context.Background(), flags, &config.Config{}, &fakeStore{}, monday)
	if err != nil {
		t.Fatalf("buildInput returned error: %v", err)
	}

	if again.Topic != input.Topic {
		t.Errorf("expected deterministic rotation topic, got %q then %q", input.Topic, again.Topic)
	}
}

func TestBuildInputRotationSkipsRecentTopics(t *testing.T) {
	t.Parallel()

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	baseline, err := buildInput(context.Background(), cliFlags{rotate: true}, &config.Config{}, &fakeStore{}, monday)
	if err != nil {
		t.Fatalf("buildInput returned error: %v", err)
	}

	store := &fakeStore{keys: []string{topics.KeyFor(baseline.Topic)}}
	excludedRun, err := buildInput(context.Background(), cliFlags{rotate: true}, &config.Config{}, store, monday)
	if err != nil {
		t.Fatalf("buildInput returned error: %v", err)
	}

	if excludedRun.Topic == baseline.Topic {
		t.Errorf("expected a different topic when the baseline is excluded")
	}
}

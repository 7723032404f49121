package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePurger struct {
	gotCutoff time.Time
	n         int64
	err       error
}

func (f *fakePurger) PurgeTombstoned(ctx context.Context, before time.Time) (int64, error) {
	f.gotCutoff = before
	return f.n, f.err
}

type fakeTokenPurger struct {
	gotCutoff time.Time
	n         int64
}

func (f *fakeTokenPurger) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	f.gotCutoff = before
	return f.n, nil
}

func TestRunUsesRetentionHorizon(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	teams := &fakePurger{n: 3}
	tokens := &fakeTokenPurger{n: 5}

	s, err := New("0 3 * * *", map[string]TombstonePurger{"teams": teams}, tokens,
		WithRetention(90*24*time.Hour),
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCutoff := now.Add(-90 * 24 * time.Hour)
	if !teams.gotCutoff.Equal(wantCutoff) {
		t.Fatalf("tombstone cutoff = %v, want %v", teams.gotCutoff, wantCutoff)
	}
	if !tokens.gotCutoff.Equal(now) {
		t.Fatalf("token cutoff = %v, want %v", tokens.gotCutoff, now)
	}
}

func TestRunSweepsRemainingTablesOnError(t *testing.T) {
	broken := &fakePurger{err: errors.New("boom")}
	healthy := &fakePurger{n: 1}

	s, err := New("@daily", map[string]TombstonePurger{
		"comments": broken,
		"teams":    healthy,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("expected error from broken purger")
	}
	if healthy.gotCutoff.IsZero() {
		t.Fatalf("healthy purger was not swept")
	}
}

func TestNewValidatesInputs(t *testing.T) {
	if _, err := New("", map[string]TombstonePurger{"teams": &fakePurger{}}, nil); err == nil {
		t.Fatalf("expected error for empty schedule")
	}
	if _, err := New("@daily", nil, nil); err == nil {
		t.Fatalf("expected error for missing purgers")
	}
}

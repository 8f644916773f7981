// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

func match(item string, at int64, actors ...string) models.MatchRecord {
	return models.MatchRecord{ItemID: item, Participants: actors, DetectedAt: time.Unix(at, 0).UTC()}
}

func TestCreateMatchAtMostOnce(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateMatch(ctx, match("m1", 100, "alice", "bob"))
	if err != nil || !created {
		t.Fatalf("first CreateMatch = %v, %v; want true, nil", created, err)
	}

	// A replay after restart detects the same crossing with a later timestamp.
	created, err = s.CreateMatch(ctx, match("m1", 200, "alice", "bob"))
	if err != nil || created {
		t.Fatalf("second CreateMatch = %v, %v; want false, nil", created, err)
	}

	rec, err := s.GetMatch(ctx, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.DetectedAt.Unix() != 100 {
		t.Errorf("record was overwritten: DetectedAt = %v", rec.DetectedAt)
	}

	// The losing write must not leave participant index entries behind.
	got, err := s.MatchesForActor(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("alice has %d matches, want 1", len(got))
	}
}

func TestCreateMatchConcurrent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	creations := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := s.CreateMatch(ctx, match("m1", int64(i), "alice", "bob"))
			if err != nil {
				t.Errorf("CreateMatch error = %v", err)
				return
			}
			if created {
				mu.Lock()
				creations++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if creations != 1 {
		t.Errorf("%d concurrent creations succeeded, want exactly 1", creations)
	}
}

func TestGetMatchNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if _, err := s.GetMatch(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMatch error = %v, want ErrNotFound", err)
	}
}

func TestMatchesForActor(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, m := range []models.MatchRecord{
		match("m2", 200, "alice", "carol"),
		match("m1", 100, "alice", "bob"),
		match("m3", 300, "bob", "carol"),
		// Actor IDs may contain ':' so "alice:x" must not leak into alice's matches.
		match("m4", 400, "alice:x", "dave"),
	} {
		if _, err := s.CreateMatch(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.MatchesForActor(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ItemID != "m1" || got[1].ItemID != "m2" {
		t.Errorf("alice matches = %+v, want m1 then m2", got)
	}

	none, err := s.MatchesForActor(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestReceipts(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, m := range []models.MatchRecord{
		match("m1", 100, "alice", "bob"),
		match("m2", 200, "alice", "carol"),
	} {
		if _, err := s.CreateMatch(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := s.UndeliveredMatches(ctx, "alice")
	if err != nil || len(pending) != 2 {
		t.Fatalf("UndeliveredMatches = %v, %v; want 2", pending, err)
	}

	first, err := s.MarkDelivered(ctx, "alice", "m1")
	if err != nil || !first {
		t.Fatalf("MarkDelivered = %v, %v; want true", first, err)
	}
	again, err := s.MarkDelivered(ctx, "alice", "m1")
	if err != nil || again {
		t.Fatalf("repeat MarkDelivered = %v, %v; want false", again, err)
	}

	delivered, err := s.IsDelivered(ctx, "alice", "m1")
	if err != nil || !delivered {
		t.Errorf("IsDelivered(alice, m1) = %v, %v", delivered, err)
	}
	delivered, err = s.IsDelivered(ctx, "bob", "m1")
	if err != nil || delivered {
		t.Errorf("receipts must be per actor: IsDelivered(bob, m1) = %v, %v", delivered, err)
	}

	pending, err = s.UndeliveredMatches(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ItemID != "m2" {
		t.Errorf("UndeliveredMatches after receipt = %+v, want [m2]", pending)
	}
}

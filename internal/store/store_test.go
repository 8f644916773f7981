// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cinematch/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func like(item, actor string) models.LikeEvent {
	return models.LikeEvent{ItemID: item, ActorID: actor}
}

func TestOpenOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(Config{Path: dir, SyncWrites: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.AppendLike(context.Background(), like("m1", "alice")); err != nil {
		t.Fatalf("AppendLike() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen: the log survives and the sequence keeps increasing.
	s, err = Open(Config{Path: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	rec, err := s.AppendLike(context.Background(), like("m1", "bob"))
	if err != nil {
		t.Fatalf("AppendLike() after reopen error = %v", err)
	}
	likes, err := s.Likes(context.Background())
	if err != nil {
		t.Fatalf("Likes() error = %v", err)
	}
	if len(likes) != 2 {
		t.Fatalf("got %d likes after reopen, want 2", len(likes))
	}
	if rec.Seq <= likes[0].Seq {
		t.Errorf("seq did not increase across reopen: %d then %d", likes[0].Seq, rec.Seq)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestAppendLikeAssignsFields(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	rec, err := s.AppendLike(context.Background(), like("m1", "alice"))
	if err != nil {
		t.Fatalf("AppendLike() error = %v", err)
	}
	if rec.Seq == 0 {
		t.Error("Seq should be assigned")
	}
	if rec.EventID == "" {
		t.Error("EventID should be assigned")
	}
	if rec.EmittedAt.IsZero() {
		t.Error("EmittedAt should be assigned")
	}
}

func TestLikesInSeqOrder(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	// More than ten entries exercises zero-padded key ordering.
	for i := 0; i < 25; i++ {
		if _, err := s.AppendLike(ctx, like("m1", "actor")); err != nil {
			t.Fatal(err)
		}
	}
	likes, err := s.Likes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 25 {
		t.Fatalf("got %d likes, want 25", len(likes))
	}
	for i := 1; i < len(likes); i++ {
		if likes[i].Seq <= likes[i-1].Seq {
			t.Fatalf("likes out of order at %d: %d after %d", i, likes[i].Seq, likes[i-1].Seq)
		}
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()

	s, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsOpen() {
		t.Error("IsOpen() = false before Close")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if s.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}

	ctx := context.Background()
	if _, err := s.AppendLike(ctx, like("m1", "a")); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("AppendLike error = %v, want ErrStoreClosed", err)
	}
	if _, err := s.CreateMatch(ctx, models.MatchRecord{ItemID: "m1"}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("CreateMatch error = %v, want ErrStoreClosed", err)
	}
	if err := s.Listen(ctx, 1, &recordingListener{}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Listen error = %v, want ErrStoreClosed", err)
	}
}

func TestRunGCStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, err := Open(Config{Path: t.TempDir(), GCInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.RunGC(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunGC() = %v, want DeadlineExceeded", err)
	}
}

// Identifiers may contain ':' but never '/', so '/' is the only safe separator.
func TestKeyLayout(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.AppendLike(ctx, like("tmdb:603", "alice@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	detected := time.Unix(0, 42).UTC()
	if _, err := s.CreateMatch(ctx, models.MatchRecord{ItemID: "tmdb:603", Participants: []string{"alice@example.com"}, DetectedAt: detected}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.MarkDelivered(ctx, "alice@example.com", "tmdb:603"); err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{
		fmt.Sprintf("like/%020d", rec.Seq):                            false,
		"match/tmdb:603":                                              false,
		"match_actor/alice@example.com/00000000000000000042/tmdb:603": false,
		"receipt/alice@example.com/tmdb:603":                          false,
	}
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if k := string(it.Item().Key()); strings.HasPrefix(k, "like/") || strings.HasPrefix(k, "match") || strings.HasPrefix(k, "receipt/") {
				if _, ok := want[k]; !ok {
					t.Errorf("unexpected key %q", k)
				}
				want[k] = true
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("missing key %q", k)
		}
	}
}

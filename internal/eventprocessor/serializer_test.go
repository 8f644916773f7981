// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package eventprocessor

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/cinematch/internal/models"
)

func testRecord(item string, actors ...string) models.MatchRecord {
	return models.MatchRecord{
		ItemID:       item,
		ItemTitle:    "Heat",
		Participants: actors,
		DetectedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestEncodeMatch(t *testing.T) {
	t.Parallel()

	rec := testRecord("m1", "alice", "bob")
	msg, err := EncodeMatch(rec)
	if err != nil {
		t.Fatalf("EncodeMatch: %v", err)
	}
	if msg.UUID != MatchMessageID("m1") {
		t.Errorf("UUID = %s, want deterministic id", msg.UUID)
	}
	if got := msg.Metadata.Get(MetadataItemID); got != "m1" {
		t.Errorf("item metadata = %q", got)
	}

	got, err := DecodeMatch(msg)
	if err != nil {
		t.Fatalf("DecodeMatch: %v", err)
	}
	if got.ItemID != rec.ItemID || !slices.Equal(got.Participants, rec.Participants) || !got.DetectedAt.Equal(rec.DetectedAt) {
		t.Errorf("decoded = %+v, want %+v", got, rec)
	}
}

func TestMatchMessageID_StablePerItem(t *testing.T) {
	t.Parallel()

	if MatchMessageID("m1") != MatchMessageID("m1") {
		t.Error("id not stable")
	}
	if MatchMessageID("m1") == MatchMessageID("m2") {
		t.Error("ids collide across items")
	}
}

func TestEncodeMatch_RejectsIncomplete(t *testing.T) {
	t.Parallel()

	if _, err := EncodeMatch(testRecord("", "alice")); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("err = %v", err)
	}
	if _, err := EncodeMatch(testRecord("m1")); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("err = %v", err)
	}
}

func TestDecodeMatch_Invalid(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"not json", "{}", `{"item_id":"m1","participants":[]}`} {
		if _, err := DecodeMatch(message.NewMessage("x", []byte(payload))); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("payload %q: err = %v", payload, err)
		}
	}
}

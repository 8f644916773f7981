// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package models

import (
	"slices"
	"time"
)

// MatchDetected is emitted by the quorum evaluator the instant an item's
// distinct-actor count first reaches the quorum.
type MatchDetected struct {
	ItemID       string    `json:"item_id"`
	ItemTitle    string    `json:"item_title,omitempty"`
	Participants []string  `json:"participants"`
	DetectedAt   time.Time `json:"detected_at"`
}

// Record converts the detection into its persisted form.
func (m MatchDetected) Record() MatchRecord {
	return MatchRecord{
		ItemID:       m.ItemID,
		ItemTitle:    m.ItemTitle,
		Participants: slices.Clone(m.Participants),
		DetectedAt:   m.DetectedAt,
	}
}

// MatchRecord is the one-time, immutable record of a quorum crossing.
// At most one exists per ItemID.
type MatchRecord struct {
	ItemID       string    `json:"item_id"`
	ItemTitle    string    `json:"item_title,omitempty"`
	Participants []string  `json:"participants"`
	DetectedAt   time.Time `json:"detected_at"`
}

// HasParticipant reports whether actorID is one of the record's participants.
func (r *MatchRecord) HasParticipant(actorID string) bool {
	return slices.Contains(r.Participants, actorID)
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cinematch/internal/models"
)

// Metadata keys set on match messages.
const (
	MetadataItemID = "item_id"
	MetadataKind   = "kind"

	kindMatch = "match_detected"
)

// matchNamespace scopes match message UUIDs so the same item always yields
// the same ID across restarts and instances.
var matchNamespace = uuid.MustParse("8f4f7c7e-5a1b-4c57-9a66-0c7c6f0e2d11")

// MatchMessageID is the deterministic message UUID for itemID.
func MatchMessageID(itemID string) string {
	return uuid.NewSHA1(matchNamespace, []byte(itemID)).String()
}

// EncodeMatch builds the broker message for rec.
func EncodeMatch(rec models.MatchRecord) (*message.Message, error) {
	if rec.ItemID == "" || len(rec.Participants) == 0 {
		return nil, fmt.Errorf("%w: item and participants are required", ErrInvalidMessage)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal match: %w", err)
	}
	msg := message.NewMessage(MatchMessageID(rec.ItemID), payload)
	msg.Metadata.Set(MetadataItemID, rec.ItemID)
	msg.Metadata.Set(MetadataKind, kindMatch)
	return msg, nil
}

// DecodeMatch parses a message produced by EncodeMatch.
func DecodeMatch(msg *message.Message) (models.MatchRecord, error) {
	var rec models.MatchRecord
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		return models.MatchRecord{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if rec.ItemID == "" || len(rec.Participants) == 0 {
		return models.MatchRecord{}, fmt.Errorf("%w: missing item or participants", ErrInvalidMessage)
	}
	return rec, nil
}

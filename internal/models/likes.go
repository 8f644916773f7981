// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package models

import "time"

// LikeEvent is the immutable fact that one actor liked one item.
//
// ItemTitle is display-only: it is captured from the client at submission time
// so late readers of a match can show something before the catalog answers.
// It never participates in matching.
type LikeEvent struct {
	EventID   string    `json:"event_id"`
	ItemID    string    `json:"item_id" validate:"required,identifier"`
	ActorID   string    `json:"actor_id" validate:"required,identifier"`
	ItemTitle string    `json:"item_title,omitempty" validate:"omitempty,max=256"`
	EmittedAt time.Time `json:"emitted_at"`
}

// LikeRecord is a LikeEvent as stored in the durable like log.
// Seq is the store-assigned position; the live query reports records in Seq order.
type LikeRecord struct {
	Seq uint64 `json:"seq"`
	LikeEvent
}

// Event returns the synthetic LikeEvent carried by the record.
func (r LikeRecord) Event() LikeEvent {
	return r.LikeEvent
}

// ItemLikes is the matching view of one item. It carries the like count but
// never the actors behind it.
type ItemLikes struct {
	ItemID  string `json:"item_id"`
	State   string `json:"state"`
	Likes   int    `json:"likes"`
	Quorum  int    `json:"quorum"`
	LikedBy bool   `json:"liked_by_caller"`
}

// LikeRequest is the body of POST /api/v1/likes.
type LikeRequest struct {
	ItemID    string `json:"item_id" validate:"required,identifier"`
	ItemTitle string `json:"item_title,omitempty" validate:"omitempty,max=256"`
}

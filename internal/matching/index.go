// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package matching

import (
	"slices"
)

// State is an item's position in the match lifecycle.
type State int

const (
	StateUnseen State = iota
	StateBelowQuorum
	StateMatched
)

func (s State) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StateBelowQuorum:
		return "below_quorum"
	case StateMatched:
		return "matched"
	default:
		return "unknown"
	}
}

// ItemLikeSet is an insertion-ordered set of distinct actor IDs.
type ItemLikeSet struct {
	actors  []string
	members map[string]struct{}
}

// Add appends actorID unless already present and reports whether it was added.
func (s *ItemLikeSet) Add(actorID string) bool {
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	if _, ok := s.members[actorID]; ok {
		return false
	}
	s.members[actorID] = struct{}{}
	s.actors = append(s.actors, actorID)
	return true
}

func (s *ItemLikeSet) Contains(actorID string) bool {
	_, ok := s.members[actorID]
	return ok
}

func (s *ItemLikeSet) Len() int {
	return len(s.actors)
}

// Actors returns a copy of the set in insertion order.
func (s *ItemLikeSet) Actors() []string {
	return slices.Clone(s.actors)
}

// ItemState is the index entry for one item.
type ItemState struct {
	ItemID  string
	Title   string
	Likes   ItemLikeSet
	Matched bool
}

// State derives the lifecycle state from the entry.
func (st *ItemState) State() State {
	switch {
	case st == nil || st.Likes.Len() == 0:
		return StateUnseen
	case st.Matched:
		return StateMatched
	default:
		return StateBelowQuorum
	}
}

// ItemSnapshot is a read-only view of an item's index entry.
type ItemSnapshot struct {
	ItemID string   `json:"item_id"`
	State  string   `json:"state"`
	Count  int      `json:"count"`
	Actors []string `json:"actors"`
}

func (st *ItemState) snapshot(itemID string) ItemSnapshot {
	if st == nil {
		return ItemSnapshot{ItemID: itemID, State: StateUnseen.String(), Actors: []string{}}
	}
	return ItemSnapshot{
		ItemID: st.ItemID,
		State:  st.State().String(),
		Count:  st.Likes.Len(),
		Actors: st.Likes.Actors(),
	}
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package matching

import (
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

// Evaluator applies the quorum rule to item entries. It holds no per-item
// state and is safe to share between shards.
type Evaluator struct {
	quorum int
	now    func() time.Time
}

// NewEvaluator returns an evaluator that matches at quorum distinct actors.
func NewEvaluator(quorum int) (*Evaluator, error) {
	if quorum < 1 {
		return nil, fmt.Errorf("quorum must be at least 1, got %d", quorum)
	}
	return &Evaluator{quorum: quorum, now: time.Now}, nil
}

// Quorum returns the configured threshold.
func (e *Evaluator) Quorum() int {
	return e.quorum
}

// Apply records ev in st. It reports whether the actor was new to the item
// and returns a detection only on the transition into Matched.
func (e *Evaluator) Apply(st *ItemState, ev models.LikeEvent) (bool, *models.MatchDetected) {
	if !st.Likes.Add(ev.ActorID) {
		return false, nil
	}
	if st.Title == "" {
		st.Title = ev.ItemTitle
	}
	if st.Matched || st.Likes.Len() < e.quorum {
		return true, nil
	}

	st.Matched = true
	return true, &models.MatchDetected{
		ItemID:       st.ItemID,
		ItemTitle:    st.Title,
		Participants: st.Likes.Actors(),
		DetectedAt:   e.now().UTC(),
	}
}

// Index is the set of item entries owned by one shard. It is not safe for
// concurrent use.
type Index struct {
	eval  *Evaluator
	items map[string]*ItemState
}

// NewIndex returns an empty index using eval.
func NewIndex(eval *Evaluator) *Index {
	return &Index{eval: eval, items: make(map[string]*ItemState)}
}

// Apply creates the item's entry on first sight and applies ev to it.
func (ix *Index) Apply(ev models.LikeEvent) (bool, *models.MatchDetected) {
	st, ok := ix.items[ev.ItemID]
	if !ok {
		st = &ItemState{ItemID: ev.ItemID}
		ix.items[ev.ItemID] = st
	}
	return ix.eval.Apply(st, ev)
}

// Item returns the entry for itemID, or nil if it was never liked.
func (ix *Index) Item(itemID string) *ItemState {
	return ix.items[itemID]
}

// Len is the number of items with at least one like.
func (ix *Index) Len() int {
	return len(ix.items)
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package matching

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
)

// shardMsg is either a like to apply or a read of one item.
type shardMsg struct {
	event models.LikeEvent
	query *itemQuery
}

type itemQuery struct {
	itemID string
	reply  chan ItemSnapshot
}

// shard owns the index entries for every item routed to it. Only the run
// goroutine touches index and pending.
type shard struct {
	id    int
	index *Index
	inbox chan shardMsg
	sink  MatchSink
	log   zerolog.Logger

	// Detections the sink refused because the loop was stopping. They are
	// handed over first when the loop restarts.
	pending []models.MatchDetected
}

func newShard(id int, eval *Evaluator, queueSize int, sink MatchSink, log zerolog.Logger) *shard {
	return &shard{
		id:    id,
		index: NewIndex(eval),
		inbox: make(chan shardMsg, queueSize),
		sink:  sink,
		log:   log.With().Int("shard", id).Logger(),
	}
}

// run drains the inbox until ctx is done.
func (s *shard) run(ctx context.Context) {
	if !s.flushPending(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.inbox:
			if msg.query != nil {
				msg.query.reply <- s.index.Item(msg.query.itemID).snapshot(msg.query.itemID)
				continue
			}
			s.apply(ctx, msg.event)
		}
	}
}

func (s *shard) apply(ctx context.Context, ev models.LikeEvent) {
	added, detected := s.index.Apply(ev)
	metrics.RecordLikeIndexed(added)
	metrics.UpdateShardGauges(s.id, len(s.inbox), s.index.Len())
	if detected == nil {
		return
	}

	metrics.MatchesDetected.Inc()
	s.log.Info().
		Str("item_id", detected.ItemID).
		Strs("participants", detected.Participants).
		Msg("Match detected")
	s.emit(ctx, *detected)
}

func (s *shard) emit(ctx context.Context, m models.MatchDetected) {
	if err := s.sink.MatchDetected(ctx, m); err != nil {
		s.log.Warn().Err(err).Str("item_id", m.ItemID).Msg("Match sink refused detection, holding for retry")
		s.pending = append(s.pending, m)
	}
}

// flushPending reports false if ctx ended before everything was handed over.
func (s *shard) flushPending(ctx context.Context) bool {
	for len(s.pending) > 0 {
		m := s.pending[0]
		if err := s.sink.MatchDetected(ctx, m); err != nil {
			return false
		}
		s.pending = s.pending[1:]
	}
	s.pending = nil
	return true
}

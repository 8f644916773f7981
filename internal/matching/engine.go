// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
)

// ErrInvalidEvent is returned by Submit for events missing an item or actor.
var ErrInvalidEvent = errors.New("like event requires item and actor")

// ErrAlreadyServing is returned when Serve is called on a running engine.
var ErrAlreadyServing = errors.New("matching engine already serving")

// MatchSink receives each detection exactly once. MatchDetected may block to
// apply backpressure and returns an error only when ctx ends first.
type MatchSink interface {
	MatchDetected(ctx context.Context, m models.MatchDetected) error
}

// Config sizes the engine.
type Config struct {
	Quorum    int
	Shards    int
	QueueSize int
}

// Engine routes like events to shards and runs the shard loops.
type Engine struct {
	eval    *Evaluator
	shards  []*shard
	serving atomic.Bool
}

// NewEngine builds an engine whose detections go to sink.
func NewEngine(cfg Config, sink MatchSink) (*Engine, error) {
	if sink == nil {
		return nil, errors.New("match sink is required")
	}
	if cfg.Shards < 1 {
		return nil, fmt.Errorf("shard count must be at least 1, got %d", cfg.Shards)
	}
	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("shard queue size must be at least 1, got %d", cfg.QueueSize)
	}
	eval, err := NewEvaluator(cfg.Quorum)
	if err != nil {
		return nil, err
	}

	log := logging.WithComponent("matching")
	e := &Engine{eval: eval, shards: make([]*shard, cfg.Shards)}
	for i := range e.shards {
		e.shards[i] = newShard(i, eval, cfg.QueueSize, sink, log)
	}
	return e, nil
}

// ShardFor returns the index of the shard that owns itemID.
func (e *Engine) ShardFor(itemID string) int {
	return int(xxhash.Sum64String(itemID) % uint64(len(e.shards)))
}

// Quorum returns the configured threshold.
func (e *Engine) Quorum() int {
	return e.eval.Quorum()
}

// Submit enqueues ev on its item's shard. It blocks while that shard's inbox
// is full and returns ctx.Err() if ctx ends first.
func (e *Engine) Submit(ctx context.Context, ev models.LikeEvent) error {
	if ev.ItemID == "" || ev.ActorID == "" {
		return ErrInvalidEvent
	}
	s := e.shards[e.ShardFor(ev.ItemID)]
	select {
	case s.inbox <- shardMsg{event: ev}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Item returns a snapshot of itemID as seen by its shard after every event
// submitted before the call. It needs Serve to be running.
func (e *Engine) Item(ctx context.Context, itemID string) (ItemSnapshot, error) {
	q := &itemQuery{itemID: itemID, reply: make(chan ItemSnapshot, 1)}
	s := e.shards[e.ShardFor(itemID)]
	select {
	case s.inbox <- shardMsg{query: q}:
	case <-ctx.Done():
		return ItemSnapshot{}, ctx.Err()
	}
	select {
	case snap := <-q.reply:
		return snap, nil
	case <-ctx.Done():
		return ItemSnapshot{}, ctx.Err()
	}
}

// Serve runs every shard loop until ctx is done. Index state survives a
// return, so a supervisor may call Serve again.
func (e *Engine) Serve(ctx context.Context) error {
	if !e.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}
	defer e.serving.Store(false)

	var wg sync.WaitGroup
	for _, s := range e.shards {
		wg.Add(1)
		go func(s *shard) {
			defer wg.Done()
			s.run(ctx)
		}(s)
	}
	wg.Wait()
	return ctx.Err()
}

func (e *Engine) String() string {
	return "matching-engine"
}

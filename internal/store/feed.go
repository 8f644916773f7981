// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
)

const markerInterval = 20 * time.Millisecond

// Listener consumes a live query over the like log.
type Listener interface {
	// OnSnapshot receives every like present when the query started, in seq order.
	OnSnapshot(ctx context.Context, records []models.LikeRecord) error

	// OnChange receives each later append. It is never called before OnSnapshot returns.
	OnChange(ctx context.Context, record models.LikeRecord) error
}

// Listen runs a live query over the like log until ctx is done, the listener
// returns an error, or the subscription breaks.
//
// Appends that arrive while the listener is busy are buffered up to capacity.
// When the buffer is full the query ends with ErrFeedOverflow; the caller is
// expected to Listen again, which starts from a fresh snapshot.
//
// Listen never returns nil: it returns ctx.Err(), the listener's error,
// ErrFeedOverflow, or ErrStoreClosed.
func (s *Store) Listen(ctx context.Context, capacity int, l Listener) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if capacity < 1 {
		capacity = 1
	}

	subCtx, cancel := context.WithCancel(ctx)
	markerPrefix := []byte(prefixFeedMarker + uuid.New().String() + "/")
	diffs := make(chan models.LikeRecord, capacity)
	live := make(chan struct{})
	var liveOnce sync.Once

	onKVs := func(list *badger.KVList) error {
		for _, kv := range list.Kv {
			if bytes.HasPrefix(kv.Key, markerPrefix) {
				liveOnce.Do(func() { close(live) })
				continue
			}
			var rec models.LikeRecord
			if err := json.Unmarshal(kv.Value, &rec); err != nil {
				logging.Warn().Err(err).Str("key", string(kv.Key)).Msg("Skipping malformed like diff")
				continue
			}
			select {
			case diffs <- rec:
			default:
				return ErrFeedOverflow
			}
		}
		return nil
	}

	subDone := make(chan error, 1)
	subRunning := true
	go func() {
		subDone <- s.db.Subscribe(subCtx, onKVs, []pb.Match{
			{Prefix: []byte(prefixLike)},
			{Prefix: markerPrefix},
		})
	}()
	defer func() {
		cancel()
		if subRunning {
			<-subDone
		}
	}()

	// Subscribe registers asynchronously. Writing a marker under our own prefix
	// and waiting to see it proves the subscription is receiving, so the
	// snapshot taken afterwards cannot miss an append.
	if ended, err := s.awaitLive(subCtx, markerPrefix, live, subDone); err != nil {
		subRunning = !ended
		return s.feedEnded(ctx, err)
	}

	snapshot, err := s.Likes(subCtx)
	if err != nil {
		return err
	}
	inSnapshot := make(map[uint64]struct{}, len(snapshot))
	for _, rec := range snapshot {
		inSnapshot[rec.Seq] = struct{}{}
	}
	if err := l.OnSnapshot(ctx, snapshot); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-subDone:
			subRunning = false
			return s.feedEnded(ctx, err)
		case rec := <-diffs:
			// Appends committed between subscribing and snapshotting arrive twice.
			if _, dup := inSnapshot[rec.Seq]; dup {
				delete(inSnapshot, rec.Seq)
				continue
			}
			if err := l.OnChange(ctx, rec); err != nil {
				return err
			}
		}
	}
}

// awaitLive writes markers until the subscription reports one back.
// ended is true when the subscription has already returned (subDone drained).
func (s *Store) awaitLive(ctx context.Context, markerPrefix []byte, live <-chan struct{}, subDone <-chan error) (ended bool, err error) {
	ticker := time.NewTicker(markerInterval)
	defer ticker.Stop()

	for attempt := 0; ; attempt++ {
		key := append(bytes.Clone(markerPrefix), strconv.Itoa(attempt)...)
		if err := s.update(func(txn *badger.Txn) error {
			return txn.SetEntry(badger.NewEntry(key, nil).WithTTL(time.Minute))
		}); err != nil {
			return false, fmt.Errorf("write feed marker: %w", err)
		}

		select {
		case <-live:
			return false, nil
		case subErr := <-subDone:
			return true, subErr
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Store) feedEnded(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ErrFeedOverflow) {
		return ErrFeedOverflow
	}
	if err == nil || errors.Is(err, context.Canceled) || !s.IsOpen() {
		return ErrStoreClosed
	}
	return fmt.Errorf("like subscription: %w", err)
}

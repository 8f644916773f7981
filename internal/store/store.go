// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/cinematch/internal/logging"
)

var (
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("store is closed")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrFeedOverflow ends a live query whose diff buffer filled up.
	ErrFeedOverflow = errors.New("live query buffer overflow")
)

const (
	prefixLike        = "like/"
	prefixMatch       = "match/"
	prefixMatchActor  = "match_actor/"
	prefixReceipt     = "receipt/"
	prefixFeedMarker  = "feedmark/"
	keyLikeSequence   = "seq/likes"
	sequenceBandwidth = 1000

	conflictRetries = 5
)

// Config configures the Badger database.
type Config struct {
	Path       string
	SyncWrites bool
	InMemory   bool

	// GCInterval between value log GC passes in RunGC. Zero disables GC.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// Store is the Badger-backed like log, match log and receipt set.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	config Config

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Compression = options.Snappy
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	seq, err := db.GetSequence([]byte(keyLikeSequence), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("lease like sequence: %w", err)
	}

	if cfg.GCDiscardRatio <= 0 {
		cfg.GCDiscardRatio = 0.5
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Store opened")

	return &Store{db: db, seq: seq, config: cfg}, nil
}

// OpenInMemory opens a throwaway store. Used by tests and local runs.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the sequence lease and closes the database. Live queries
// end once the database shuts down.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.seq.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release sequence: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close BadgerDB: %w", err))
	}
	return errors.Join(errs...)
}

// IsOpen reports whether Close has not been called.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on Badger conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < conflictRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// RunGC runs Badger value log GC every GCInterval until ctx is done.
func (s *Store) RunGC(ctx context.Context) error {
	if s.config.GCInterval <= 0 || s.config.InMemory {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.checkOpen(); err != nil {
				return err
			}
			// One pass may free several files; keep going until nothing is rewritten.
			for {
				err := s.db.RunValueLogGC(s.config.GCDiscardRatio)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
						logging.Warn().Err(err).Msg("Value log GC failed")
					}
					break
				}
			}
		}
	}
}

// String implements fmt.Stringer for the supervisor.
func (s *Store) String() string {
	return "store-gc"
}

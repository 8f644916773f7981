// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
)

func likeKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixLike, seq))
}

// AppendLike durably appends one like to the log and returns the stored record.
// An empty EventID is filled with a new UUID and a zero EmittedAt with now.
func (s *Store) AppendLike(ctx context.Context, event models.LikeEvent) (models.LikeRecord, error) {
	if err := s.checkOpen(); err != nil {
		return models.LikeRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.LikeRecord{}, err
	}

	n, err := s.seq.Next()
	if err != nil {
		return models.LikeRecord{}, fmt.Errorf("next like sequence: %w", err)
	}

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	rec := models.LikeRecord{Seq: n + 1, LikeEvent: event}

	data, err := json.Marshal(&rec)
	if err != nil {
		return models.LikeRecord{}, fmt.Errorf("marshal like: %w", err)
	}

	if err := s.update(func(txn *badger.Txn) error {
		return txn.Set(likeKey(rec.Seq), data)
	}); err != nil {
		return models.LikeRecord{}, fmt.Errorf("append like: %w", err)
	}
	return rec, nil
}

// Likes returns the whole like log in seq order.
func (s *Store) Likes(ctx context.Context) ([]models.LikeRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var records []models.LikeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		records, err = readLikes(ctx, txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read like log: %w", err)
	}
	return records, nil
}

func readLikes(ctx context.Context, txn *badger.Txn) ([]models.LikeRecord, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	var records []models.LikeRecord
	prefix := []byte(prefixLike)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := it.Item()
		var rec models.LikeRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Skipping malformed like record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

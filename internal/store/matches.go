// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/models"
)

func matchKey(itemID string) []byte {
	return []byte(prefixMatch + itemID)
}

func matchActorPrefix(actorID string) []byte {
	return []byte(prefixMatchActor + actorID + "/")
}

// matchActorKey orders an actor's matches by detection time.
func matchActorKey(actorID string, rec *models.MatchRecord) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", prefixMatchActor, actorID, rec.DetectedAt.UnixNano(), rec.ItemID))
}

// CreateMatch stores rec unless a record for the same item already exists.
// It reports whether rec was written; an existing record is never replaced.
func (s *Store) CreateMatch(ctx context.Context, rec models.MatchRecord) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		return false, fmt.Errorf("marshal match: %w", err)
	}

	created := false
	err = s.update(func(txn *badger.Txn) error {
		created = false
		_, err := txn.Get(matchKey(rec.ItemID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(matchKey(rec.ItemID), data); err != nil {
			return err
		}
		for _, actor := range rec.Participants {
			if err := txn.Set(matchActorKey(actor, &rec), nil); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("create match %s: %w", rec.ItemID, err)
	}
	return created, nil
}

// GetMatch returns the record for itemID or ErrNotFound.
func (s *Store) GetMatch(ctx context.Context, itemID string) (*models.MatchRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var rec *models.MatchRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getMatch(txn, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MatchesForActor returns every match actorID participates in, oldest first.
func (s *Store) MatchesForActor(ctx context.Context, actorID string) ([]models.MatchRecord, error) {
	return s.matchesForActor(ctx, actorID, false)
}

func (s *Store) matchesForActor(ctx context.Context, actorID string, undeliveredOnly bool) ([]models.MatchRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	records := []models.MatchRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := matchActorPrefix(actorID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().KeyCopy(nil)
			itemID := string(key[lastSlash(key)+1:])

			if undeliveredOnly {
				delivered, err := hasReceipt(txn, actorID, itemID)
				if err != nil {
					return err
				}
				if delivered {
					continue
				}
			}

			rec, err := getMatch(txn, itemID)
			if err != nil {
				return err
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list matches for %s: %w", actorID, err)
	}
	return records, nil
}

func getMatch(txn *badger.Txn, itemID string) (*models.MatchRecord, error) {
	item, err := txn.Get(matchKey(itemID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", itemID, err)
	}

	var rec models.MatchRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal match %s: %w", itemID, err)
	}
	return &rec, nil
}

func lastSlash(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == '/' {
			return i
		}
	}
	return -1
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cinematch/internal/models"
)

func receiptKey(actorID, itemID string) []byte {
	return []byte(prefixReceipt + actorID + "/" + itemID)
}

// MarkDelivered records that actorID has been shown the match for itemID.
// It reports true only for the call that created the receipt.
func (s *Store) MarkDelivered(ctx context.Context, actorID, itemID string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	first := false
	err := s.update(func(txn *badger.Txn) error {
		first = false
		exists, err := hasReceipt(txn, actorID, itemID)
		if err != nil || exists {
			return err
		}
		stamp, _ := time.Now().UTC().MarshalBinary()
		if err := txn.Set(receiptKey(actorID, itemID), stamp); err != nil {
			return err
		}
		first = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("mark delivered %s/%s: %w", actorID, itemID, err)
	}
	return first, nil
}

// IsDelivered reports whether a receipt exists for (actorID, itemID).
func (s *Store) IsDelivered(ctx context.Context, actorID, itemID string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	var delivered bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		delivered, err = hasReceipt(txn, actorID, itemID)
		return err
	})
	return delivered, err
}

// UndeliveredMatches returns actorID's matches that have no receipt, oldest first.
func (s *Store) UndeliveredMatches(ctx context.Context, actorID string) ([]models.MatchRecord, error) {
	return s.matchesForActor(ctx, actorID, true)
}

func hasReceipt(txn *badger.Txn, actorID, itemID string) (bool, error) {
	_, err := txn.Get(receiptKey(actorID, itemID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

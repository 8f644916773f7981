// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import "context"

// GarbageCollector runs periodic storage maintenance until ctx ends.
type GarbageCollector interface {
	RunGC(ctx context.Context) error
}

// StoreGCService supervises the like store's value log GC loop.
type StoreGCService struct {
	gc GarbageCollector
}

func NewStoreGCService(gc GarbageCollector) *StoreGCService {
	return &StoreGCService{gc: gc}
}

func (s *StoreGCService) Serve(ctx context.Context) error {
	return s.gc.RunGC(ctx)
}

func (s *StoreGCService) String() string {
	return "store-gc"
}

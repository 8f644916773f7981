// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLikeSubmission(t *testing.T) {
	before := testutil.ToFloat64(LikesSubmitted.WithLabelValues("accepted"))
	RecordLikeSubmission("accepted", 5*time.Millisecond)
	RecordLikeSubmission("invalid_input", 0)

	if got := testutil.ToFloat64(LikesSubmitted.WithLabelValues("accepted")); got != before+1 {
		t.Errorf("accepted = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(LikesSubmitted.WithLabelValues("invalid_input")); got < 1 {
		t.Errorf("invalid_input = %v, want >= 1", got)
	}
}

func TestRecordLikeIndexed(t *testing.T) {
	newBefore := testutil.ToFloat64(LikesIndexed.WithLabelValues("new_actor"))
	dupBefore := testutil.ToFloat64(LikesIndexed.WithLabelValues("duplicate"))

	RecordLikeIndexed(true)
	RecordLikeIndexed(false)
	RecordLikeIndexed(false)

	if got := testutil.ToFloat64(LikesIndexed.WithLabelValues("new_actor")); got != newBefore+1 {
		t.Errorf("new_actor = %v, want %v", got, newBefore+1)
	}
	if got := testutil.ToFloat64(LikesIndexed.WithLabelValues("duplicate")); got != dupBefore+2 {
		t.Errorf("duplicate = %v, want %v", got, dupBefore+2)
	}
}

func TestUpdateShardGauges(t *testing.T) {
	UpdateShardGauges(3, 17, 42)

	if got := testutil.ToFloat64(ShardQueueDepth.WithLabelValues("3")); got != 17 {
		t.Errorf("queue depth = %v, want 17", got)
	}
	if got := testutil.ToFloat64(ShardItems.WithLabelValues("3")); got != 42 {
		t.Errorf("items = %v, want 42", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("test-breaker", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("test-breaker", "closed", "open")); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/likes", "202"))
	RecordAPIRequest("POST", "/api/v1/likes", 202, time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/likes", "202")); got != before+1 {
		t.Errorf("requests = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
}

// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cinematch/internal/bridge"
	"github.com/tomtom215/cinematch/internal/eventprocessor"
	"github.com/tomtom215/cinematch/internal/matching"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/notifier"
	"github.com/tomtom215/cinematch/internal/store"
)

// matchingLayer is one lifetime of bridge, engine and notifier over a store.
type matchingLayer struct {
	engine *matching.Engine
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func startMatchingLayer(t *testing.T, s *store.Store, ps *eventprocessor.PubSub) *matchingLayer {
	t.Helper()
	ncfg := notifier.DefaultConfig()
	ncfg.InitialBackoff = time.Millisecond
	n, err := notifier.New(ncfg, s, ps.Publisher, ps.Topic())
	if err != nil {
		t.Fatal(err)
	}
	engine, err := matching.NewEngine(matching.Config{Quorum: 2, Shards: 2, QueueSize: 16}, n)
	if err != nil {
		t.Fatal(err)
	}
	bcfg := bridge.DefaultConfig()
	bcfg.ReconnectBackoff = 5 * time.Millisecond
	b, err := bridge.New(bcfg, s, engine)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &matchingLayer{engine: engine, cancel: cancel}
	for _, serve := range []func(context.Context) error{n.Serve, engine.Serve, b.Serve} {
		l.wg.Add(1)
		go func(serve func(context.Context) error) {
			defer l.wg.Done()
			if err := serve(ctx); !errors.Is(err, context.Canceled) {
				t.Errorf("Serve = %v", err)
			}
		}(serve)
	}
	t.Cleanup(l.stop)
	return l
}

func (l *matchingLayer) stop() {
	l.once.Do(func() {
		l.cancel()
		l.wg.Wait()
	})
}

// waitMatched blocks until the layer's engine reports itemID as matched.
func (l *matchingLayer) waitMatched(t *testing.T, itemID string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		snap, err := l.engine.Item(ctx, itemID)
		cancel()
		if err == nil && snap.State == matching.StateMatched.String() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s not matched: %+v, %v", itemID, snap, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// startDelivery runs broker delivery into hub and returns once a message
// published on the topic is known to reach it.
func startDelivery(t *testing.T, hub *Hub, ps *eventprocessor.PubSub) {
	t.Helper()
	d := NewDelivery(hub, ps.Subscriber, ps.Topic(), eventprocessor.DefaultRouterConfig(), ps.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	canary := register(t, hub, "canary")
	nextFrame(t, canary)
	msg, err := eventprocessor.EncodeMatch(models.MatchRecord{ItemID: "warmup", Participants: []string{"canary"}})
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.After(10 * time.Second)
	for {
		if err := ps.Publisher.Publish(ps.Topic(), msg.Copy()); err != nil {
			t.Fatal(err)
		}
		select {
		case <-canary.Frames():
			hub.Unregister(context.Background(), canary)
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("delivery router never subscribed")
		}
	}
}

// expectMatch waits for the match frame for itemID on sess and confirms it
// the way the write pump does.
func expectMatch(t *testing.T, hub *Hub, sess *Session, itemID string) {
	t.Helper()
	for {
		f := nextFrame(t, sess)
		if f.Type != FrameMatch {
			continue
		}
		if got := f.Data.(models.MatchRecord).ItemID; got != itemID {
			t.Fatalf("match for %s, want %s", got, itemID)
		}
		if err := hub.Confirm(context.Background(), sess, f); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		return
	}
}

// expectNoMatch fails on any match frame arriving within quiet.
func expectNoMatch(t *testing.T, sess *Session, quiet time.Duration) {
	t.Helper()
	timeout := time.After(quiet)
	for {
		select {
		case f, ok := <-sess.Frames():
			if !ok {
				t.Fatal("session closed")
			}
			if f.Type == FrameMatch {
				t.Fatalf("unexpected match frame %+v", f)
			}
		case <-timeout:
			return
		}
	}
}

func TestPipeline_OfflineParticipantSeesMatchOnceAcrossRestart(t *testing.T) {
	t.Parallel()

	hub, s := newTestHub(t, DefaultConfig())
	ps, err := eventprocessor.NewPubSub(eventprocessor.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ps.Close() })
	startDelivery(t, hub, ps)

	ctx := context.Background()
	alice := register(t, hub, "alice")
	nextFrame(t, alice)

	first := startMatchingLayer(t, s, ps)
	for _, actor := range []string{"alice", "bob"} {
		if _, err := s.AppendLike(ctx, models.LikeEvent{ItemID: "m1", ActorID: actor}); err != nil {
			t.Fatalf("AppendLike: %v", err)
		}
	}
	first.waitMatched(t, "m1")

	// Alice is online and gets it live. The record is stored before it is
	// published, so bob's receipt check below sees it.
	expectMatch(t, hub, alice, "m1")
	expectNoMatch(t, alice, 100*time.Millisecond)

	// Bob was offline at detection and picks it up on connect.
	bob := register(t, hub, "bob")
	if f := nextFrame(t, bob); f.Type != FrameHello {
		t.Fatalf("frame = %+v", f)
	}
	expectMatch(t, hub, bob, "m1")

	// A fresh matching layer replays the whole like log and detects m1 again.
	first.stop()
	second := startMatchingLayer(t, s, ps)
	second.waitMatched(t, "m1")

	expectNoMatch(t, alice, 300*time.Millisecond)
	expectNoMatch(t, bob, 300*time.Millisecond)

	// Nor does a later reconnect.
	hub.Unregister(ctx, bob)
	again := register(t, hub, "bob")
	nextFrame(t, again)
	expectNoFrame(t, again)
}

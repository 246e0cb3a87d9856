/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventPrecomputeCompleted)
	other := b.Subscribe(EventPrecomputeStarted)

	b.Publish(EventPrecomputeCompleted, Payload{"run_id": "r1"})

	select {
	case p := <-sub:
		if p["run_id"] != "r1" {
			t.Errorf("payload = %v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}
	select {
	case p := <-other:
		t.Errorf("unrelated subscriber received %v", p)
	default:
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus()
	b.Subscribe(EventLeadershipChanged)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(EventLeadershipChanged, Payload{"i": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeCloses(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventPrecomputeSkipped)
	b.Unsubscribe(EventPrecomputeSkipped, sub)
	if _, ok := <-sub; ok {
		t.Error("subscriber channel still open")
	}
	b.Publish(EventPrecomputeSkipped, Payload{})
	b.Unsubscribe(EventPrecomputeSkipped, sub)

	var nilBus *Bus
	nilBus.Publish(EventPrecomputeSkipped, Payload{})
}

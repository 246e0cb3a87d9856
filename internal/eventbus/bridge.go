/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus forwards in-process lifecycle events to an external
// broker so other services can react to precompute runs.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/panchangam/internal/events"
	"github.com/friendsincode/panchangam/internal/telemetry"
)

// Publisher sends one encoded message to a subject.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, subject string, data []byte) error
}

// Message is the wire envelope.
type Message struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

// Bridge subscribes to the bus and republishes each event as
// <prefix>.events.<event_type>.
type Bridge struct {
	bus       *events.Bus
	publisher Publisher
	prefix    string
	nodeID    string
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewBridge returns a Bridge. nodeID identifies this instance in envelopes.
func NewBridge(bus *events.Bus, publisher Publisher, prefix, nodeID string, logger zerolog.Logger) *Bridge {
	if prefix == "" {
		prefix = "panchangd"
	}
	if nodeID == "" {
		nodeID = NodeID()
	}
	return &Bridge{
		bus:       bus,
		publisher: publisher,
		prefix:    prefix,
		nodeID:    nodeID,
		logger:    logger.With().Str("component", "eventbus").Str("publisher", publisher.Name()).Logger(),
		timeout:   5 * time.Second,
	}
}

// Subject returns the subject for an event type.
func (b *Bridge) Subject(t events.EventType) string {
	return b.prefix + ".events." + string(t)
}

// Run forwards events until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, types ...events.EventType) {
	if len(types) == 0 {
		types = events.All
	}

	var wg sync.WaitGroup
	for _, t := range types {
		sub := b.bus.Subscribe(t)
		wg.Add(1)
		go func(t events.EventType, sub events.Subscriber) {
			defer wg.Done()
			defer b.bus.Unsubscribe(t, sub)
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-sub:
					if !ok {
						return
					}
					b.forward(ctx, t, payload)
				}
			}
		}(t, sub)
	}
	wg.Wait()
}

func (b *Bridge) forward(ctx context.Context, t events.EventType, payload events.Payload) {
	data, err := Encode(t, payload, b.nodeID)
	if err != nil {
		b.logger.Warn().Err(err).Str("event", string(t)).Msg("encode event")
		telemetry.EventsPublished.WithLabelValues(string(t), "error").Inc()
		return
	}

	pctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.publisher.Publish(pctx, b.Subject(t), data); err != nil {
		b.logger.Warn().Err(err).Str("event", string(t)).Msg("publish event")
		telemetry.EventsPublished.WithLabelValues(string(t), "error").Inc()
		return
	}
	telemetry.EventsPublished.WithLabelValues(string(t), "ok").Inc()
}

// Encode wraps payload in a Message envelope.
func Encode(t events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	return json.Marshal(Message{
		EventType: t,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	})
}

// Decode parses an envelope.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal event message: %w", err)
	}
	return &msg, nil
}

// NodeID returns hostname-<short uuid>.
func NodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "node"
	}
	return host + "-" + uuid.NewString()[:8]
}

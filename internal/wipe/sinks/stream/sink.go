// Package stream publishes saved audit records to a Kafka topic for
// downstream compliance consumers (SIEM, retention tooling).
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"datacustody/internal/wipe"
)

// Producer is the slice of the Kafka client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink publishes one message per saved audit record, keyed by user ID so a
// user's erasure history lands in one partition, in order.
type Sink struct {
	client Producer
	topic  string
}

// New connects to the given brokers.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// NewWithClient builds a sink over an existing producer. Used by tests.
func NewWithClient(client Producer, topic string) *Sink {
	return &Sink{client: client, topic: topic}
}

func (s *Sink) Name() string { return "stream" }

func (s *Sink) RecordSaved(ctx context.Context, ev wipe.SavedEvent) error {
	if ev.Replaying {
		return nil
	}

	payload, err := json.Marshal(ev.Record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatInt(ev.Record.UserID, 10)),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish audit record %s: %w", ev.Record.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying Kafka client when one was created
// by New.
func (s *Sink) Close() {
	if client, ok := s.client.(*kgo.Client); ok {
		client.Close()
	}
}

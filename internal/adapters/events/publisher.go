package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"listing_editor/internal/adapters/observability"
	"listing_editor/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits listing events to a Kafka topic, keyed by listing id so every
// event for one listing lands on the same partition.
type Publisher struct {
	w messageWriter
}

func New(brokers []string, topic string) *Publisher {
	return NewWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	})
}

func NewWithWriter(w messageWriter) *Publisher { return &Publisher{w: w} }

func (p *Publisher) Publish(ctx context.Context, ev domain.ListingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ListingID),
		Value: data,
		Time:  time.UnixMilli(ev.At),
	})
	observability.ObserveEvent(ev.Type, err)
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", ev.Type, ev.ListingID, err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }

// Noop drops every event; used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.ListingEvent) error { return nil }
func (Noop) Close() error { return nil }

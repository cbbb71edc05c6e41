// Package kafka publishes custody audit events to a Kafka topic. The
// custody trail is regulatory evidence, so publishes are synchronous: the
// caller blocks until the broker acknowledges the record.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"custodia/internal/platform/audit"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "custody.audit"

// Publisher is a Kafka-backed audit sink.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic overrides the destination topic.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// New connects to the given brokers.
func New(brokers []string, opts ...Option) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("audit kafka client: %w", err)
	}
	p := &Publisher{client: client, topic: DefaultTopic}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// payload is the wire form of an audit event. Asset ids travel hex-encoded.
type payload struct {
	Action    string `json:"action"`
	AssetID   string `json:"asset_id,omitempty"`
	Actor     string `json:"actor,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Append implements audit.Sink. Records are keyed by asset id so one
// asset's trail stays ordered within a partition.
func (p *Publisher) Append(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(payload{
		Action:    string(event.Action),
		AssetID:   event.AssetID.Hex(),
		Actor:     event.Actor.String(),
		Subject:   event.Subject.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339),
		RequestID: event.RequestID,
		Detail:    event.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.AssetID.Hex()),
		Value: body,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}

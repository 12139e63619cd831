// Package events publishes messaging activity to Kafka for downstream
// consumers (push notifications, audit). Publishing is best effort: a broker
// outage never fails the user-facing operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeMessageCreated   = "message.created"
	TypeMessageDeleted   = "message.deleted"
	TypeConversationRead = "conversation.read"
)

type Event struct {
	Type            string    `json:"type"`
	ConversationKey string    `json:"conversation_key"`
	MessageID       string    `json:"message_id,omitempty"`
	ActorID         string    `json:"actor_id,omitempty"`
	At              time.Time `json:"at"`
}

type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, log: log}
}

// Publish writes the event keyed by conversation, so all events of one
// conversation land on one partition in order.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if p == nil {
		return
	}
	ev.At = time.Now().UTC()
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorw("marshal event", "type", ev.Type, "err", err)
		return
	}
	msg := kafka.Message{Key: []byte(ev.ConversationKey), Value: b, Time: ev.At}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("kafka publish", "type", ev.Type, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

// Package notify implements alert.Mailer transports.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MailCommand is the message a mail worker consumes from the topic.
type MailCommand struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMailer publishes mail commands for an external worker to deliver.
// Messages are keyed by recipient so one recipient's mail stays ordered.
type KafkaMailer struct {
	writer messageWriter
	now    func() time.Time
}

// NewKafkaMailer writes to topic on the given brokers.
func NewKafkaMailer(brokers []string, topic string) (*KafkaMailer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("no kafka topic configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newKafkaMailer(w), nil
}

func newKafkaMailer(w messageWriter) *KafkaMailer {
	return &KafkaMailer{writer: w, now: time.Now}
}

func (m *KafkaMailer) Send(ctx context.Context, to, subject, html string) error {
	cmd := MailCommand{
		ID:        uuid.NewString(),
		To:        to,
		Subject:   subject,
		HTML:      html,
		CreatedAt: m.now().UTC(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshalling mail command: %w", err)
	}
	err = m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(to),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing mail command: %w", err)
	}
	return nil
}

func (m *KafkaMailer) Close() error { return m.writer.Close() }

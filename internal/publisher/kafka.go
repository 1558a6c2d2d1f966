// Package publisher forwards telemetry events to a Kafka topic.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"plant_telemetry/internal/models"
)

// Publisher sends telemetry events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e models.TelemetryEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const writeTimeout = 5 * time.Second

// Kafka publishes events keyed by plant ID so a plant's events stay ordered
// within one partition.
type Kafka struct {
	writer messageWriter
}

// NewKafka returns a Kafka publisher, or a Nop when no brokers are configured.
func NewKafka(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		return Nop{}, nil
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: writeTimeout,
	}
	return &Kafka{writer: w}, nil
}

func (k *Kafka) Publish(ctx context.Context, e models.TelemetryEvent) error {
	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }

func toMessage(e models.TelemetryEvent) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	key := "weather"
	if e.PlantID != 0 {
		key = "plant-" + strconv.FormatInt(e.PlantID, 10)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}, nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.TelemetryEvent) error { return nil }
func (Nop) Close() error                                         { return nil }

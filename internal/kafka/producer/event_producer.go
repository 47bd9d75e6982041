package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/clearpath-signup/internal/kafka"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Event конверт события для внешнего обработчика
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// EventProducer публикует события регистрации в Kafka
type EventProducer struct {
	producer    sarama.SyncProducer
	topicPrefix string
	log         *logger.Logger
}

// NewEventProducer создает продюсер событий поверх синхронного продюсера Sarama
func NewEventProducer(producer sarama.SyncProducer, topicPrefix string, log *logger.Logger) *EventProducer {
	return &EventProducer{
		producer:    producer,
		topicPrefix: topicPrefix,
		log:         log,
	}
}

// Publish отправляет событие; ключ сообщения определяет партицию
func (p *EventProducer) Publish(ctx context.Context, eventType, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	topic := kafka.TopicName(p.topicPrefix, eventType)
	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(eventType),
			},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.log.Debug("Published event to topic %s: partition=%d offset=%d", topic, partition, offset)
	return nil
}

// Close закрывает продюсер
func (p *EventProducer) Close() error {
	return p.producer.Close()
}

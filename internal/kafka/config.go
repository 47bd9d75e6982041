package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

// Config конфигурация для Kafka
type Config struct {
	Brokers []string
	// TopicPrefix добавляется к типу события, например "clearpath." + "baseline.queued"
	TopicPrefix string
	Producer    ProducerConfig
}

// ProducerConfig конфигурация для продюсера
type ProducerConfig struct {
	MaxMessageBytes int
	Compression     sarama.CompressionCodec
	RequiredAcks    sarama.RequiredAcks
	Timeout         time.Duration
	RetryMax        int
}

// NewConfig создает новую конфигурацию Kafka
func NewConfig(brokers []string, topicPrefix string) *Config {
	return &Config{
		Brokers:     brokers,
		TopicPrefix: topicPrefix,
		Producer: ProducerConfig{
			MaxMessageBytes: 1000000,
			Compression:     sarama.CompressionSnappy,
			RequiredAcks:    sarama.WaitForLocal,
			Timeout:         5 * time.Second,
			RetryMax:        3,
		},
	}
}

// NewSaramaConfig создает новую конфигурацию Sarama для синхронного продюсера
func NewSaramaConfig(cfg *Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()

	// Версия Kafka
	saramaConfig.Version = sarama.V3_3_0_0
	saramaConfig.ClientID = "clearpath-signup"

	// Настройки продюсера
	saramaConfig.Producer.MaxMessageBytes = cfg.Producer.MaxMessageBytes
	saramaConfig.Producer.Compression = cfg.Producer.Compression
	saramaConfig.Producer.RequiredAcks = cfg.Producer.RequiredAcks
	saramaConfig.Producer.Timeout = cfg.Producer.Timeout
	saramaConfig.Producer.Retry.Max = cfg.Producer.RetryMax
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	return saramaConfig
}

// TopicName топик для типа события
func TopicName(prefix, eventType string) string {
	return prefix + eventType
}

// Topics топики для набора типов событий
func Topics(prefix string, eventTypes ...string) []string {
	topics := make([]string, 0, len(eventTypes))
	for _, t := range eventTypes {
		topics = append(topics, TopicName(prefix, t))
	}
	return topics
}

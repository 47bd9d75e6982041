package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Dhoini/clearpath-signup/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
)

const (
	defaultPartitions  = 3
	defaultReplication = 1
)

// EnsureKafkaTopics проверяет и создает необходимые топики Kafka.
func EnsureKafkaTopics(ctx context.Context, brokers []string, topics []string, log *logger.Logger) error {
	log.Infow("Ensuring Kafka topics exist...", "topics", topics)

	if len(brokers) == 0 || brokers[0] == "" {
		return errors.New("kafka broker address is empty")
	}
	if err := validateBroker(brokers[0]); err != nil {
		log.Errorw("Invalid Kafka broker address", "broker", brokers[0], "error", err)
		return err
	}

	// Подключаемся к первому брокеру для админских операций
	connCtx, cancelConn := context.WithTimeout(ctx, 15*time.Second)
	defer cancelConn()

	conn, err := kafkaGo.DialLeader(connCtx, "tcp", brokers[0], "", 0)
	if err != nil {
		log.Errorw("Failed to connect to Kafka broker for topic creation", "broker", brokers[0], "error", err)
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka read partitions failed: %w", err)
	}

	existing := make(map[string]bool)
	for _, p := range partitions {
		existing[p.Topic] = true
	}

	missing := missingTopics(topics, existing)
	if len(missing) == 0 {
		log.Infow("All required topics already exist")
		return nil
	}

	if err := conn.CreateTopics(missing...); err != nil {
		if errors.Is(err, kafkaGo.TopicAlreadyExists) {
			log.Warnw("One or more topics already existed during creation attempt", "topics", topicNames(missing))
			return nil
		}
		log.Errorw("Failed to create topics", "error", err, "topics", topicNames(missing))
		return fmt.Errorf("kafka create topics failed: %w", err)
	}

	log.Infow("Created Kafka topics", "topics", topicNames(missing))
	return nil
}

func validateBroker(broker string) error {
	_, portStr, err := net.SplitHostPort(strings.TrimSpace(broker))
	if err != nil {
		return fmt.Errorf("invalid broker address %s: %w", broker, err)
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid broker port %s: %w", broker, err)
	}
	return nil
}

func missingTopics(required []string, existing map[string]bool) []kafkaGo.TopicConfig {
	var out []kafkaGo.TopicConfig
	for _, topic := range required {
		if existing[topic] {
			continue
		}
		out = append(out, kafkaGo.TopicConfig{
			Topic:             topic,
			NumPartitions:     defaultPartitions,
			ReplicationFactor: defaultReplication,
		})
	}
	return out
}

func topicNames(configs []kafkaGo.TopicConfig) []string {
	names := make([]string, 0, len(configs))
	for _, tc := range configs {
		names = append(names, tc.Topic)
	}
	return names
}

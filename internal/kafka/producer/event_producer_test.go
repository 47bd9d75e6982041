package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Dhoini/clearpath-signup/internal/kafka"
	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := kafka.NewSaramaConfig(kafka.NewConfig([]string{"localhost:9092"}, "clearpath."))
	return mocks.NewSyncProducer(t, cfg)
}

func TestEventProducer_Publish(t *testing.T) {
	mock := newMockProducer(t)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "clearpath.baseline.queued", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "baseline_1", string(key))

		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "event_type", string(msg.Headers[0].Key))
		assert.Equal(t, "baseline.queued", string(msg.Headers[0].Value))

		raw, err := msg.Value.Encode()
		require.NoError(t, err)
		var event struct {
			ID      string            `json:"id"`
			Type    string            `json:"type"`
			Key     string            `json:"key"`
			Payload map[string]string `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "baseline.queued", event.Type)
		assert.Equal(t, "baseline_1", event.Key)
		assert.Equal(t, "https://ann.dev", event.Payload["website"])
		return nil
	})

	p := NewEventProducer(mock, "clearpath.", logger.NewNop())
	err := p.Publish(context.Background(), "baseline.queued", "baseline_1", map[string]string{"website": "https://ann.dev"})

	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestEventProducer_PublishFailure(t *testing.T) {
	mock := newMockProducer(t)
	mock.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewEventProducer(mock, "clearpath.", logger.NewNop())
	err := p.Publish(context.Background(), "session.created", "cs_1", nil)

	require.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}

func TestEventProducer_CanceledContext(t *testing.T) {
	mock := newMockProducer(t)
	p := NewEventProducer(mock, "clearpath.", logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "session.created", "cs_1", nil)

	assert.True(t, errors.Is(err, context.Canceled))
	require.NoError(t, p.Close())
}

func TestEventProducer_UnmarshalablePayload(t *testing.T) {
	mock := newMockProducer(t)
	p := NewEventProducer(mock, "clearpath.", logger.NewNop())

	err := p.Publish(context.Background(), "session.created", "cs_1", map[string]any{"bad": make(chan int)})

	require.Error(t, err)
	require.NoError(t, p.Close())
}

package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/household-daily-budget/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader hands out queued messages, then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:        "localhost:9092",
		HouseholdTopic: "household_events",
		ConsumerGroup:  "budget-engine-group",
		MinBytes:       1024,
		MaxBytes:       10240,
		MaxWait:        time.Second,
	}

	consumer := NewKafkaConsumer(newTestLogger(), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "household_events", consumer.topic)
	assert.Equal(t, "budget-engine-group", consumer.groupID)
	require.NoError(t, consumer.Close())
}

func TestKafkaConsumer_CommitsOnlyHandledMessages(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Topic: "household_events", Offset: 1, Value: []byte("ok")},
		{Topic: "household_events", Offset: 2, Value: []byte("fail")},
		{Topic: "household_events", Offset: 3, Value: []byte("ok")},
	}}
	consumer := &KafkaConsumer{reader: reader, logger: newTestLogger(), topic: "household_events", done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	var handled sync.WaitGroup
	handled.Add(3)
	handler := func(_ context.Context, msg kafka.Message) error {
		defer handled.Done()
		if string(msg.Value) == "fail" {
			return errors.New("processing failed")
		}
		return nil
	}

	require.NoError(t, consumer.Subscribe(ctx, handler))
	handled.Wait()
	cancel()

	select {
	case <-consumer.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer loop did not stop")
	}
	assert.Equal(t, []int64{1, 3}, reader.commits())
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{reader: nil, logger: newTestLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := &KafkaConsumer{reader: reader, logger: newTestLogger()}
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}

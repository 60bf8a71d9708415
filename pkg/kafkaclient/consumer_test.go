package kafkaclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages   chan kafka.Message
	commitChan chan kafka.Message
	isClosed   bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 16),
		commitChan: make(chan kafka.Message, 16),
	}
}

func (mr *mockReader) produce(count int) {
	go func() {
		defer close(mr.messages)
		for i := 0; i < count; i++ {
			mr.messages <- kafka.Message{
				Topic:  "test-topic",
				Offset: int64(i),
				Key:    []byte(fmt.Sprintf("job_%d", i)),
				Value:  []byte(fmt.Sprintf("payload-%d", i)),
			}
		}
	}()
}

func (mr *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if mr.isClosed {
		return kafka.Message{}, io.EOF
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, io.EOF
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.isClosed = true
	close(mr.commitChan)
	return nil
}

func newTestConsumer(reader Reader) *Consumer {
	return &Consumer{
		reader:      reader,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
	}
}

func TestConsumer_ConsumeAndCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mr := newMockReader()
	consumer := newTestConsumer(mr)

	const expected = 3
	mr.produce(expected)
	consumer.Start(ctx)

	received := 0
	for msg := range consumer.Messages() {
		want := fmt.Sprintf("payload-%d", received)
		if string(msg.Value) != want {
			t.Errorf("message %d value = %q, want %q", received, msg.Value, want)
		}
		if err := consumer.Commit(ctx, msg); err != nil {
			t.Errorf("Commit() failed: %v", err)
		}
		received++
	}
	if received != expected {
		t.Errorf("received %d messages, want %d", received, expected)
	}

	consumer.Stop()

	committed := 0
	for range mr.commitChan {
		committed++
	}
	if committed != expected {
		t.Errorf("committed %d messages, want %d", committed, expected)
	}
}

func TestConsumer_StopClosesChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mr := newMockReader()
	consumer := newTestConsumer(mr)

	mr.produce(100)
	consumer.Start(ctx)

	// Consume a few messages to make sure the loop is running.
	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out waiting for a message")
		}
	}

	consumer.Stop()

	// The message channel must be closed after Stop.
	for range consumer.Messages() {
	}

	if !mr.isClosed {
		t.Error("expected underlying reader to be closed after Stop()")
	}
}

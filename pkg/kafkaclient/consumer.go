// Package kafkaclient wraps segmentio/kafka-go for the job dispatch
// channel between the submission API and the executor worker.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the subset of the kafka-go Reader the consumer uses.
// It exists so unit tests can inject a mock.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads job messages from a topic and exposes them on a
// channel. Offsets are committed manually after a job has been handled,
// so a crashed executor replays unfinished work.
type Consumer struct {
	reader      Reader
	logger      *slog.Logger
	doneChan    chan struct{}
	wg          sync.WaitGroup
	messageChan chan kafka.Message
}

// NewConsumer creates a Consumer for the given topic and group.
func NewConsumer(broker, topic, groupID string, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
		// Manual offset control: a job is acknowledged only after its
		// terminal record has been written.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return &Consumer{
		reader:      reader,
		logger:      logger,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
	}
}

// Messages returns the channel of consumed messages. The channel is
// closed when the consumer stops.
func (c *Consumer) Messages() <-chan kafka.Message {
	return c.messageChan
}

// Commit acknowledges a handled message.
func (c *Consumer) Commit(ctx context.Context, msg kafka.Message) error {
	return c.reader.CommitMessages(ctx, msg)
}

// Start begins the consumption loop in a separate goroutine.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.messageChan)

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.doneChan:
				return
			default:
				msg, err := c.reader.ReadMessage(ctx)
				if err != nil {
					if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
						return
					}
					c.logger.Error("read message failed", "error", err)
					// Avoid a tight error loop on broker trouble.
					time.Sleep(time.Second)
					continue
				}

				select {
				case c.messageChan <- msg:
				case <-ctx.Done():
					return
				case <-c.doneChan:
					return
				}
			}
		}
	}()
}

// Stop gracefully shuts the consumer down.
func (c *Consumer) Stop() {
	close(c.doneChan)
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		c.logger.Error("close kafka reader failed", "error", err)
	}
}

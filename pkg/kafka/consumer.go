package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// MessageHandler processes incoming Kafka messages. Returning an error leaves the message
// uncommitted and the consumer retries it in place before fetching the next one.
type MessageHandler func(ctx context.Context, msg *IncomingMessage) error

// messageReader is the part of kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultRetryUnit    = 500 * time.Millisecond
	defaultMaxRetryWait = 30 * time.Second
)

// Consumer handles Kafka message consumption
type Consumer struct {
	reader  messageReader
	topic   string
	logger  ectologger.Logger
	handler MessageHandler
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running atomic.Bool

	// retryUnit scales the Fibonacci backoff used for failed handlers and fetch errors
	retryUnit    time.Duration
	maxRetryWait time.Duration
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// NewConsumer creates a new Kafka consumer for the merge request topic
func NewConsumer(cfg config.Config, logger ectologger.Logger, handler MessageHandler) *Consumer {
	return NewConsumerWithConfig(ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaInputTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
	}, logger, handler)
}

// NewConsumerWithConfig creates a new Kafka consumer with explicit config
func NewConsumerWithConfig(cfg ConsumerConfig, logger ectologger.Logger, handler MessageHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		topic:   cfg.Topic,
		logger:       logger,
		handler:      handler,
		retryUnit:    defaultRetryUnit,
		maxRetryWait: defaultMaxRetryWait,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	c.running.Store(true)
	go c.consumeLoop(ctx)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": c.topic,
	}).Info("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	defer c.running.Store(false)

	fetchFailures := 0
	for {
		select {
		case <-ctx.Done():
			c.logger.WithContext(ctx).Info("Consumer loop stopping")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return
				}
				fetchFailures++
				wait := c.backoff(fetchFailures)
				c.logger.WithContext(ctx).WithError(err).WithField("retry_in", wait.String()).Error("Failed to fetch message")
				if !sleep(ctx, wait) {
					return
				}
				continue
			}
			fetchFailures = 0

			if !c.handleWithRetry(ctx, msg) {
				return
			}
		}
	}
}

// handleWithRetry processes msg until the handler succeeds. Later messages on the partition are
// not fetched in the meantime, since committing one of them would move the group offset past msg.
// It returns false when ctx is cancelled first.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) bool {
	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, msg)
		if err == nil {
			return true
		}

		wait := c.backoff(attempt)
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"attempt":   attempt,
			"retry_in":  wait.String(),
		}).Warn("Retrying message")

		if !sleep(ctx, wait) {
			return false
		}
	}
}

// backoff returns the Fibonacci wait before retry number attempt, capped at maxRetryWait
func (c *Consumer) backoff(attempt int) time.Duration {
	unit, maxWait := c.retryUnit, c.maxRetryWait
	if unit <= 0 {
		unit = defaultRetryUnit
	}
	if maxWait <= 0 {
		maxWait = defaultMaxRetryWait
	}

	a, b := 1, 1
	for i := 1; i < attempt; i++ {
		a, b = b, a+b
		if time.Duration(a)*unit >= maxWait {
			return maxWait
		}
	}
	return time.Duration(a) * unit
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	// continue the producer's trace when one was propagated
	ctx = propagation.TraceContext{}.Extract(ctx, propagation.MapCarrier(headers))

	ctx, span := tracing.StartSpan(ctx, "kafka.Consumer.processMessage")
	defer span.End()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	incoming := &IncomingMessage{
		Key:         string(msg.Key),
		Value:       msg.Value,
		Headers:     headers,
		Partition:   msg.Partition,
		Offset:      msg.Offset,
		Timestamp:   msg.Time,
		Topic:       msg.Topic,
		TraceParent: headers[HeaderTraceParent],
	}

	if err := c.handler(ctx, incoming); err != nil {
		tracing.RecordError(span, err)
		log.WithError(err).Error("Failed to process message (not committing)")
		return err
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		// the handler already ran; a failed commit means a redelivery, not a retry here
		log.WithError(err).Error("Failed to commit message")
	}
	return nil
}

// Health reports whether the consume loop is running
func (c *Consumer) Health() bool {
	return c.running.Load()
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler reacts to consumed events. NotificationService satisfies the
// stored-notification side; other consumers (mailers, push) can be layered
// behind the same queues.
type Handler interface {
	HandleDemoExpired(ctx context.Context, ev DemoExpiredEvent) error
	HandleLessonLive(ctx context.Context, ev LessonLiveEvent) error
}

// Consumer drains the course event queues. It reconnects with exponential
// backoff and stops when its context is cancelled.
type Consumer struct {
	url     string
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(url string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{url: url, handler: handler, logger: logger}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("consumer dial failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consume(ctx, conn); err != nil && ctx.Err() == nil {
			c.logger.Warn("consume loop ended, reconnecting", "error", err)
		}
		_ = conn.Close()
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set QoS failed", "error", err)
	}

	for _, queue := range []string{DemoExpiredQueue, LessonLiveQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}

	demoMsgs, err := ch.Consume(DemoExpiredQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", DemoExpiredQueue, err)
	}
	liveMsgs, err := ch.Consume(LessonLiveQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", LessonLiveQueue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-demoMsgs:
			if !ok {
				return errors.New("demo expired deliveries closed")
			}
			c.dispatch(ctx, d, c.handleDemoExpired)
		case d, ok := <-liveMsgs:
			if !ok {
				return errors.New("lesson live deliveries closed")
			}
			c.dispatch(ctx, d, c.handleLessonLive)
		}
	}
}

// dispatch acks on success and rejects without requeue on failure so a bad
// message can't spin the loop.
func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery, handle func(context.Context, []byte) error) {
	if err := handle(ctx, d.Body); err != nil {
		c.logger.Error("event handling failed", "queue", d.RoutingKey, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) handleDemoExpired(ctx context.Context, body []byte) error {
	var ev DemoExpiredEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal demo expired: %w", err)
	}
	return c.handler.HandleDemoExpired(ctx, ev)
}

func (c *Consumer) handleLessonLive(ctx context.Context, body []byte) error {
	var ev LessonLiveEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal lesson live: %w", err)
	}
	return c.handler.HandleLessonLive(ctx, ev)
}

// Package notify publishes course events to RabbitMQ and runs the consumer
// that turns them into stored notifications. The broker is optional: with no
// URL configured the service runs without it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

const (
	DemoExpiredQueue = "course.demo_expired"
	LessonLiveQueue  = "course.lesson_live"
)

// DemoExpiredEvent is emitted when a demo account's window closes and the
// user is force signed out.
type DemoExpiredEvent struct {
	UserID    string    `json:"user_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

// LessonLiveEvent is emitted when a lesson enters its live window.
type LessonLiveEvent struct {
	LessonID     string    `json:"lesson_id"`
	ClassGroupID string    `json:"class_group_id"`
	Title        string    `json:"title"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// Publisher pushes events onto durable queues. It holds one connection and
// redials lazily when the broker drops it.
type Publisher struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string, logger *slog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// channel returns a usable channel, dialing if needed.
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, queue := range []string{DemoExpiredQueue, LessonLiveQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		// Drop the channel so the next publish redials.
		p.mu.Lock()
		p.ch = nil
		p.mu.Unlock()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (p *Publisher) PublishDemoExpired(ctx context.Context, userID string) error {
	return p.publish(ctx, DemoExpiredQueue, DemoExpiredEvent{
		UserID:    userID,
		ExpiredAt: time.Now().UTC(),
	})
}

func (p *Publisher) PublishLessonLive(ctx context.Context, lesson domain.Lesson) error {
	return p.publish(ctx, LessonLiveQueue, LessonLiveEvent{
		LessonID:     lesson.ID,
		ClassGroupID: lesson.ClassGroupID,
		Title:        lesson.Title,
		ScheduledAt:  lesson.ScheduledAt,
	})
}

// Close tears down the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultDialTimeout = 2 * time.Second

// Publisher publishes JSON messages to a durable topic exchange. The
// connection is opened on first use and re-opened after any failure, so a
// broker that is down at startup does not prevent the caller from starting.
type Publisher struct {
	url         string
	exchange    string
	dialTimeout time.Duration

	// sem guards conn and ch. It is a 1-slot channel rather than a mutex so
	// a caller waiting behind a slow dial gives up when its ctx does.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, exchange string, dialTimeout time.Duration) *Publisher {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &Publisher{url: url, exchange: exchange, dialTimeout: dialTimeout, sem: make(chan struct{}, 1)}
}

func (p *Publisher) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) release() { <-p.sem }

// dialBudget is dialTimeout, shortened to whatever is left of ctx.
func (p *Publisher) dialBudget(ctx context.Context) time.Duration {
	budget := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < budget {
			budget = left
		}
	}
	return budget
}

func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, fmt.Errorf("wait for connection: %w", err)
	}
	defer p.release()

	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	budget := p.dialBudget(ctx)
	if budget <= 0 {
		return nil, fmt.Errorf("dial rabbitmq: %w", context.DeadlineExceeded)
	}
	// DefaultDial's deadline covers the TCP connect and the AMQP handshake.
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(budget)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// PublishJSON makes a single persistent publish attempt bounded by ctx.
func (p *Publisher) PublishJSON(ctx context.Context, key, messageID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
	if err != nil {
		// drop the handle so the next attempt redials; skip it if ctx is
		// already spent, the next channel() call notices a dead handle anyway
		if p.acquire(ctx) == nil {
			if p.ch == ch {
				p.closeLocked()
			}
			p.release()
		}
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close waits for any in-flight dial, which is bounded by dialTimeout.
func (p *Publisher) Close() error {
	_ = p.acquire(context.Background())
	defer p.release()
	p.closeLocked()
	return nil
}

package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
	Bindings []string
	Prefetch int
	UseDLX   bool
	DLXName  string
	DLXQueue string
	Tag      string
	// DialTimeout bounds the TCP connect and AMQP handshake; zero means
	// defaultConsumerDialTimeout.
	DialTimeout time.Duration
}

const defaultConsumerDialTimeout = 5 * time.Second

// Consumer owns one connection and channel bound to a durable queue.
type Consumer struct {
	cfg  ConsumerConfig
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer dials the broker and declares the exchange, the durable queue,
// its bindings and, when enabled, the dead-letter exchange and queue.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultConsumerDialTimeout
	}
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	c := &Consumer{cfg: cfg, conn: conn, ch: ch}
	if err := c.declare(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Consumer) declare() error {
	args := amqp.Table{}
	if c.cfg.UseDLX {
		if err := c.ch.ExchangeDeclare(c.cfg.DLXName, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dlx: %w", err)
		}
		if _, err := c.ch.QueueDeclare(c.cfg.DLXQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dlq: %w", err)
		}
		if err := c.ch.QueueBind(c.cfg.DLXQueue, "#", c.cfg.DLXName, false, nil); err != nil {
			return fmt.Errorf("bind dlq: %w", err)
		}
		args["x-dead-letter-exchange"] = c.cfg.DLXName
	}

	if err := c.ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.cfg.Exchange, err)
	}
	q, err := c.ch.QueueDeclare(c.cfg.Queue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range c.cfg.Bindings {
		if err := c.ch.QueueBind(q.Name, rk, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", rk, err)
		}
	}

	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 8
	}
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// Deliveries starts a manual-ack consumer. The channel closes when the
// connection is lost or ctx is cancelled.
func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

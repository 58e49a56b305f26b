package worker

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/smartmeeting/room-booking/services/notification-service/internal/domain"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/events"
	"github.com/smartmeeting/room-booking/services/notification-service/internal/notifier"
)

var errConnectionLost = errors.New("delivery channel closed")

type Store interface {
	Save(ctx context.Context, n *domain.Notification) (bool, error)
}

// Source is one broker session, satisfied by *mq.Consumer.
type Source interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
	Close() error
}

type Dialer func() (Source, error)

type Consumer struct {
	store    Store
	notifier notifier.Notifier
	// requeueDelay is how long a delivery whose save failed is held before
	// it goes back to the queue. Run is sequential, so this also throttles
	// the whole consumer while the database is down.
	requeueDelay time.Duration
}

func NewConsumer(store Store, n notifier.Notifier, requeueDelay time.Duration) *Consumer {
	return &Consumer{store: store, notifier: n, requeueDelay: requeueDelay}
}

// Supervise keeps a consumer attached to the broker until ctx is cancelled,
// waiting delay between a lost session and the next dial.
func (c *Consumer) Supervise(ctx context.Context, dial Dialer, delay time.Duration) {
	for {
		err := c.session(ctx, dial)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retry_in", delay).Msg("RabbitMQ session ended")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Consumer) session(ctx context.Context, dial Dialer) error {
	src, err := dial()
	if err != nil {
		return err
	}
	defer src.Close()

	msgs, err := src.Deliveries(ctx)
	if err != nil {
		return err
	}
	log.Info().Msg("Notification consumer attached")
	return c.Run(ctx, msgs)
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errConnectionLost
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks only once the record is stored. Undecodable bodies are
// rejected without requeue so they land in the dead-letter queue; storage
// failures are requeued after requeueDelay.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	ev, err := events.Decode(d.Body)
	if err != nil {
		log.Warn().Err(err).Str("routing_key", d.RoutingKey).Str("message_id", d.MessageId).Msg("Dead-lettering message")
		if nerr := d.Nack(false, false); nerr != nil {
			log.Error().Err(nerr).Msg("nack failed")
		}
		return
	}

	n := &domain.Notification{
		Event:    ev.Event,
		Username: ev.Username,
		RoomID:   ev.RoomID,
		Message:  string(d.Body),
	}
	switch {
	case ev.EventID != "":
		n.EventID = &ev.EventID
	case d.MessageId != "":
		id := d.MessageId
		n.EventID = &id
	}

	inserted, err := c.store.Save(ctx, n)
	if err != nil {
		log.Error().Err(err).Str("event", ev.Event).Dur("requeue_in", c.requeueDelay).Msg("Failed to persist notification, requeueing")
		pause(ctx, c.requeueDelay)
		if nerr := d.Nack(false, true); nerr != nil {
			log.Error().Err(nerr).Msg("nack failed")
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error().Err(err).Msg("ack failed")
	}

	if !inserted {
		log.Debug().Str("event_id", *n.EventID).Msg("Duplicate delivery skipped")
		return
	}
	subject, msg := notifier.Render(ev)
	if err := c.notifier.Notify(subject, msg); err != nil {
		log.Warn().Err(err).Str("event", ev.Event).Msg("Notifier failed")
	}
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

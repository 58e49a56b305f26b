package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/smartmeeting/room-booking/services/booking-service/internal/domain"
)

const defaultTimeout = 2 * time.Second

// Sender is the broker side of publishing, satisfied by *mq.Publisher.
type Sender interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

// Publisher emits booking events without ever failing or delaying the
// request that produced them. Each event gets one attempt bounded by timeout.
type Publisher struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPublisher(sender Sender, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Publisher{sender: sender, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.Event) {
	// the attempt outlives the request, keep only its trace
	ctx = context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("event_id", ev.ID).Msg("Event publish panicked")
			}
		}()
		p.send(ctx, ev)
	}()
}

func (p *Publisher) send(ctx context.Context, ev domain.Event) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := ev.Kind.RoutingKey()
	ctx, span := otel.Tracer("booking-service").Start(ctx, "events.Publish")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", key),
		attribute.String("messaging.message.id", ev.ID),
	)

	if err := p.sender.PublishJSON(ctx, key, ev.ID, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		log.Warn().Err(err).
			Str("event_id", ev.ID).
			Str("routing_key", key).
			Int64("room_id", ev.RoomID).
			Msg("Failed to publish booking event")
		return
	}
	log.Debug().Str("event_id", ev.ID).Str("routing_key", key).Msg("Booking event published")
}

// Wait blocks until every in-flight publish has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

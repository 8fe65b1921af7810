/**
 * @description
 * This file defines the domain events the service publishes and the publisher
 * abstraction the engines depend on. Publishing is best-effort: a missing or
 * unreachable broker must never fail the request whose state change it
 * announces, so the AMQP-backed publisher is nil-safe and failures only log.
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/promopulse/promotion-service/pkg/rabbitmq"
)

// Routing keys for the topic exchange.
const (
	EventPromotionStatusChanged  = "promotion.status_changed"
	EventSubscriptionCreated     = "subscription.created"
	EventSubscriptionDeactivated = "subscription.deactivated"
)

// EventPublisher publishes a domain event under a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{}) error
}

// Event is the envelope every published event shares.
type Event struct {
	EventID    string      `json:"event_id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// PromotionStatusChangedPayload describes a committed status transition.
type PromotionStatusChangedPayload struct {
	PromotionID int64  `json:"promotion_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// SubscriptionEventPayload describes a subscription creation or deactivation.
type SubscriptionEventPayload struct {
	SubscriptionID int64 `json:"subscription_id"`
	UserID         int64 `json:"user_id"`
	PromotionID    int64 `json:"promotion_id"`
	IsActive       bool  `json:"is_active"`
}

// AMQPEventPublisher adapts the shared RabbitMQ producer to EventPublisher,
// binding it to a single exchange.
type AMQPEventPublisher struct {
	producer *rabbitmq.EventProducer
	exchange string
}

// NewAMQPEventPublisher creates a publisher over the given producer. A nil
// producer yields a publisher that silently drops events, matching how the
// service boots when the broker is unavailable.
func NewAMQPEventPublisher(producer *rabbitmq.EventProducer, exchange string) *AMQPEventPublisher {
	return &AMQPEventPublisher{producer: producer, exchange: exchange}
}

// Publish sends the event to the bound exchange.
func (p *AMQPEventPublisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.exchange, routingKey, event)
}

// publishEvent wraps the payload in an envelope and publishes it, logging
// rather than propagating failures.
func publishEvent(ctx context.Context, publisher EventPublisher, eventType string, payload interface{}) {
	if publisher == nil {
		return
	}
	event := Event{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := publisher.Publish(ctx, eventType, event); err != nil {
		log.Printf("level=warn component=events msg=\"event publish failed\" type=%s err=%v", eventType, err)
	}
}

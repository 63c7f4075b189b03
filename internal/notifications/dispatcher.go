package notifications

import (
	"context"

	"devgram/internal/models"
	"devgram/internal/observability"
)

// Transport labels for the dispatched counter.
const (
	TransportAMQP  = "amqp"
	TransportRedis = "redis"
	TransportLocal = "local"
)

// EventPublisher hands notification events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// Dispatcher picks the realtime transport for stored notifications: the
// broker when one is configured, then Redis, then the in-process hub.
type Dispatcher struct {
	broker   EventPublisher
	notifier *Notifier
	hub      *Hub
}

// NewDispatcher builds a Dispatcher without a broker.
func NewDispatcher(notifier *Notifier, hub *Hub) *Dispatcher {
	return &Dispatcher{notifier: notifier, hub: hub}
}

// UseBroker routes events through p before they reach Redis.
func (d *Dispatcher) UseBroker(p EventPublisher) {
	d.broker = p
}

// Dispatch sends n on the first available transport.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) error {
	if d.broker != nil {
		if err := d.broker.Publish(ctx, n); err != nil {
			return err
		}
		observability.NotificationsDispatched.WithLabelValues(string(n.Type), TransportAMQP).Inc()
		return nil
	}
	return d.Forward(ctx, n)
}

// Forward delivers n through Redis, or straight to the local hub when Redis
// is not configured. The relay consumer calls it for every brokered event.
func (d *Dispatcher) Forward(ctx context.Context, n *models.Notification) error {
	if d.notifier.Enabled() {
		frame, err := EncodeFrame(n)
		if err != nil {
			return err
		}
		if err := d.notifier.PublishUser(ctx, n.Recipient, string(frame)); err != nil {
			return err
		}
		observability.NotificationsDispatched.WithLabelValues(string(n.Type), TransportRedis).Inc()
		return nil
	}
	if d.hub == nil {
		return nil
	}
	if err := d.hub.Deliver(n); err != nil {
		return err
	}
	observability.NotificationsDispatched.WithLabelValues(string(n.Type), TransportLocal).Inc()
	return nil
}

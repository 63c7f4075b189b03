package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"devgram/internal/middleware"
	"devgram/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "devgram.notifications"
	relayQueue      = "devgram.notifications.relay"
	relayPrefetch   = 32
)

// RoutingKey is the topic key a notification is published under.
func RoutingKey(t models.NotificationType) string {
	return "notification." + string(t)
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Relay publishes notification events to a RabbitMQ topic exchange and
// consumes them back on a shared queue, so every event is forwarded once no
// matter how many instances run.
type Relay struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	pub      amqpPublisher
	exchange string
	logger   *slog.Logger
}

// DialRelay connects to url and declares the topic exchange.
func DialRelay(url, exchange string) (*Relay, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error establishing connection with rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error opening channel for rabbitmq: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error declaring exchange for rabbitmq: %w", err)
	}
	r := newRelay(ch, exchange)
	r.conn = conn
	r.ch = ch
	return r, nil
}

func newRelay(pub amqpPublisher, exchange string) *Relay {
	return &Relay{
		pub:      pub,
		exchange: exchange,
		logger:   middleware.Logger.With(slog.String("component", "relay")),
	}
}

// Publish sends n to the exchange under RoutingKey(n.Type).
func (r *Relay) Publish(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.pub.PublishWithContext(ctx, r.exchange, RoutingKey(n.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Consume binds the relay queue to every notification routing key and calls
// forward for each event until ctx is cancelled.
func (r *Relay) Consume(ctx context.Context, forward func(context.Context, *models.Notification) error) error {
	if r.conn == nil {
		return fmt.Errorf("relay is not connected")
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening consumer channel: %w", err)
	}
	if _, err := ch.QueueDeclare(relayQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("error declaring queue for rabbitmq: %w", err)
	}
	if err := ch.QueueBind(relayQueue, "notification.#", r.exchange, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("error binding queue for rabbitmq: %w", err)
	}
	if err := ch.Qos(relayPrefetch, 0, false); err != nil {
		_ = ch.Close()
		return err
	}
	deliveries, err := ch.Consume(relayQueue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("error consuming queue: %w", err)
	}

	go func() {
		defer func() { _ = ch.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					r.logger.Warn("relay delivery channel closed")
					return
				}
				r.handle(ctx, d, forward)
			}
		}
	}()
	return nil
}

// handle forwards one delivery. Undecodable and unforwardable events are
// dropped; realtime push is best-effort and the row is already stored.
func (r *Relay) handle(ctx context.Context, d amqp.Delivery, forward func(context.Context, *models.Notification) error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic in relay consumer",
				slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			_ = d.Nack(false, false)
		}
	}()

	var n models.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		r.logger.Warn("dropping undecodable event",
			slog.String("routing_key", d.RoutingKey), slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}
	if err := forward(ctx, &n); err != nil {
		r.logger.Warn("failed to forward event",
			slog.String("notification_id", n.ID), slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Close shuts the channel and connection.
func (r *Relay) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Package notifications delivers stored notifications to connected clients.
//
// A notification travels from the Dispatcher through an optional RabbitMQ
// relay to the Redis channel of its recipient, and from there to the
// recipient's WebSocket connections on whichever instance holds them.
package notifications

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"devgram/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix  = "notifications:user:"
	userChannelPattern = userChannelPrefix + "*"
)

// Notifier publishes notification frames into per-user Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishUser sends a payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, username, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(username), payload).Err()
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each payload until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()
	logger := middleware.Logger.With(slog.String("component", "notifier"))

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							logger.Error("panic in pattern subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(username string) string {
	return userChannelPrefix + username
}

// UsernameFromChannel is the inverse of UserChannel.
func UsernameFromChannel(channel string) (string, bool) {
	username, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok || username == "" {
		return "", false
	}
	return username, true
}

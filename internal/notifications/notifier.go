// Package notifications delivers per-user activity events over Redis pub/sub
// and websocket connections.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"srefhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types published to style owners and followed users.
const (
	EventStyleLiked     = "style_liked"
	EventStyleCommented = "style_commented"
	EventNewFollower    = "new_follower"
)

const userChannelPattern = "notifications:user:*"

// Event is the JSON payload delivered to a user.
type Event struct {
	Type      string    `json:"type"`
	ActorID   uint      `json:"actorId"`
	StyleID   uint      `json:"styleId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Publisher is the publishing side services depend on.
type Publisher interface {
	Publish(ctx context.Context, recipientID uint, event Event) error
}

// UserChannel is the Redis channel carrying a user's events.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every operation into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Publish encodes event and sends it to recipientID. Events addressed to
// the actor are dropped.
func (n *Notifier) Publish(ctx context.Context, recipientID uint, event Event) error {
	if recipientID == 0 || recipientID == event.ActorID {
		return nil
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.PublishUser(ctx, recipientID, string(payload)); err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		return err
	}
	observability.NotificationsPublished.WithLabelValues(event.Type).Inc()
	return nil
}

// StartPatternSubscriber subscribes to every user channel and calls
// onMessage for each message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

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
							slog.Default().Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

var _ Publisher = (*Notifier)(nil)

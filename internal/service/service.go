// Package service holds the application's use cases. Services validate
// input, enforce ownership and return *models.AppError values that handlers
// turn into HTTP responses.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"srefhub/internal/notifications"
	"srefhub/internal/repository"

	"gorm.io/gorm"
)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// notify publishes event to recipient unless the recipient is the actor.
// Delivery is best effort.
func notify(ctx context.Context, publisher notifications.Publisher, recipientID uint, event notifications.Event) {
	if publisher == nil || recipientID == event.ActorID {
		return
	}
	if err := publisher.Publish(ctx, recipientID, event); err != nil {
		slog.Default().WarnContext(ctx, "notification publish failed",
			slog.String("type", event.Type),
			slog.Uint64("recipient_id", uint64(recipientID)),
			slog.String("error", err.Error()),
		)
	}
}

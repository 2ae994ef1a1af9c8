package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"underground/internal/middleware"
	"underground/internal/models"
	"underground/internal/observability"
	"underground/internal/repository"
)

// Event describes an interaction that should notify a user.
type Event struct {
	UserID      uint                    `json:"user_id"`
	Type        models.NotificationType `json:"type"`
	Message     string                  `json:"message"`
	ReferenceID uint                    `json:"reference_id"`
}

// Emitter persists notification events and pushes them to subscribers.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// StoreEmitter writes each event as a notification row and publishes it to
// the recipient's Redis channel. Emission is best-effort: a failed store or
// publish is logged and never fails the mutation that produced the event.
type StoreEmitter struct {
	repo     repository.NotificationRepository
	notifier *Notifier
	logger   *slog.Logger
}

// NewStoreEmitter creates an Emitter backed by the notification repository
// and the given notifier. notifier may be nil when Redis is unavailable.
func NewStoreEmitter(repo repository.NotificationRepository, notifier *Notifier) *StoreEmitter {
	return &StoreEmitter{
		repo:     repo,
		notifier: notifier,
		logger:   middleware.Logger,
	}
}

func (e *StoreEmitter) Emit(ctx context.Context, event Event) {
	notification := &models.Notification{
		UserID:      event.UserID,
		Type:        event.Type,
		Message:     event.Message,
		ReferenceID: event.ReferenceID,
	}
	if err := e.repo.Create(ctx, notification); err != nil {
		e.logger.ErrorContext(ctx, "failed to store notification",
			slog.Any("recipient", event.UserID),
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	observability.NotificationsEmitted.WithLabelValues(string(event.Type)).Inc()

	if e.notifier == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	if err := e.notifier.PublishUser(ctx, event.UserID, string(payload)); err != nil {
		e.logger.WarnContext(ctx, "failed to publish notification",
			slog.Any("recipient", event.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// NopEmitter discards events. Used where notification fan-out is not wanted.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}

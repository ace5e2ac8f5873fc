package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/streamforge/streamforge/internal/domain/model"
)

// StatusChangeEvent is fanned out whenever a video's status transitions.
type StatusChangeEvent struct {
	VideoID   uuid.UUID    `json:"video_id"`
	OldStatus model.Status `json:"old_status"`
	NewStatus model.Status `json:"new_status"`
}

// EventPublisher fans out status-change notifications to interested
// subscribers (e.g. a websocket gateway or an audit log consumer).
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
// Publishing failures are logged by callers and never block the state
// transition they describe.
type EventPublisher interface {
	PublishStatusChange(ctx context.Context, event StatusChangeEvent) error
	Close() error
}

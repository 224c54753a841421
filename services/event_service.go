package services

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/legacykeep/interaction-service/models"
)

// Event stream names. The general stream receives every event; the
// kind-specific streams are selected by prefix-matching the event type; the
// notification stream only receives notify-worthy kinds.
const (
	StreamInteractionEvents = "interaction:events"
	StreamCommentEvents     = "interaction:events:comments"
	StreamReactionEvents    = "interaction:events:reactions"
	StreamNotifications     = "interaction:notifications"
)

// notifyWorthy lists the event kinds the notification service cares about.
var notifyWorthy = map[models.EventKind]struct{}{
	models.EventCommentCreated:   {},
	models.EventReactionAdded:    {},
	models.EventCommentLiked:     {},
	models.EventCommentFlagged:   {},
	models.EventCommentModerated: {},
}

// EventService publishes committed state transitions to Redis streams.
// Delivery is best-effort: every failure is logged and swallowed so that
// emission can never roll back or fail the originating mutation.
type EventService struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewEventService wraps a Redis client. A nil client is allowed; events are
// then dropped with a debug log, which keeps local development and engine
// tests independent of Redis.
func NewEventService(client rueidis.Client, logger *zap.Logger) *EventService {
	return &EventService{client: client, logger: logger}
}

// Emit attempts delivery of one event to all applicable streams. Each
// stream delivery is attempted independently so one failing channel does
// not block the others. Streams preserve insertion order per stream; no
// ordering is promised across different content IDs.
func (s *EventService) Emit(ctx context.Context, event *models.InteractionEvent) {
	if s.client == nil {
		s.logger.Debug("event channel not configured, dropping event",
			zap.String("eventType", string(event.EventType)))
		return
	}

	body, err := sonic.Marshal(event)
	if err != nil {
		s.logger.Error("failed to serialize interaction event",
			zap.String("eventType", string(event.EventType)),
			zap.Error(err))
		return
	}

	s.publish(ctx, StreamInteractionEvents, event, body)

	switch {
	case strings.HasPrefix(string(event.EventType), "COMMENT"):
		s.publish(ctx, StreamCommentEvents, event, body)
	case strings.HasPrefix(string(event.EventType), "REACTION"):
		s.publish(ctx, StreamReactionEvents, event, body)
	}

	if _, ok := notifyWorthy[event.EventType]; ok {
		s.publish(ctx, StreamNotifications, event, body)
	}
}

func (s *EventService) publish(ctx context.Context, stream string, event *models.InteractionEvent, body []byte) {
	err := s.client.Do(ctx, s.client.B().Xadd().
		Key(stream).
		Id("*").
		FieldValue().
		FieldValue("event", string(body)).
		Build()).Error()
	if err != nil {
		s.logger.Error("failed to publish interaction event",
			zap.String("stream", stream),
			zap.String("eventId", event.EventID),
			zap.String("eventType", string(event.EventType)),
			zap.Error(err))
	}
}

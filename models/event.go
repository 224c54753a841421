package models

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCommentCreated   EventKind = "COMMENT_CREATED"
	EventCommentUpdated   EventKind = "COMMENT_UPDATED"
	EventCommentDeleted   EventKind = "COMMENT_DELETED"
	EventCommentLiked     EventKind = "COMMENT_LIKED"
	EventCommentUnliked   EventKind = "COMMENT_UNLIKED"
	EventCommentFlagged   EventKind = "COMMENT_FLAGGED"
	EventCommentModerated EventKind = "COMMENT_MODERATED"

	EventReactionAdded   EventKind = "REACTION_ADDED"
	EventReactionUpdated EventKind = "REACTION_UPDATED"
	EventReactionRemoved EventKind = "REACTION_REMOVED"

	EventRatingAdded         EventKind = "RATING_ADDED"
	EventRatingUpdated       EventKind = "RATING_UPDATED"
	EventContentShared       EventKind = "CONTENT_SHARED"
	EventContentBookmarked   EventKind = "CONTENT_BOOKMARKED"
	EventContentUnbookmarked EventKind = "CONTENT_UNBOOKMARKED"
)

const EventSchemaVersion = "1.0"

const (
	EventPriorityNormal = "normal"
	EventPriorityHigh   = "high"
)

// InteractionEvent describes one committed mutation. Events are produced
// once, never mutated, and consumed at least once by downstream channels
// (notifications, feed ranking, analytics).
type InteractionEvent struct {
	EventID         string                 `json:"eventId"`
	EventType       EventKind              `json:"eventType"`
	SchemaVersion   string                 `json:"schemaVersion"`
	Timestamp       time.Time              `json:"timestamp"`
	ActorID         uint                   `json:"actorId"`
	ContentID       uint                   `json:"contentId"`
	FamilyID        uint                   `json:"familyId,omitempty"`
	InteractionType string                 `json:"interactionType"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// NewInteractionEvent fills in identity, schema version and timestamp.
func NewInteractionEvent(kind EventKind, actorID, contentID uint, interactionType string) *InteractionEvent {
	return &InteractionEvent{
		EventID:         uuid.NewString(),
		EventType:       kind,
		SchemaVersion:   EventSchemaVersion,
		Timestamp:       time.Now().UTC(),
		ActorID:         actorID,
		ContentID:       contentID,
		InteractionType: interactionType,
		Payload:         map[string]interface{}{},
		Metadata: map[string]interface{}{
			"origin":   "interaction-service",
			"priority": EventPriorityNormal,
		},
	}
}

func (e *InteractionEvent) WithFamily(familyID uint) *InteractionEvent {
	e.FamilyID = familyID
	return e
}

func (e *InteractionEvent) WithPayload(key string, value interface{}) *InteractionEvent {
	e.Payload[key] = value
	return e
}

func (e *InteractionEvent) HighPriority() *InteractionEvent {
	e.Metadata["priority"] = EventPriorityHigh
	return e
}

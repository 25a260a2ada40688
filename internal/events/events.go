package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/teamtrack/apiserver/config"
)

// Activity event types published by the mutating operations.
const (
	TypeUserActivated     = "user.activated"
	TypeUserDeactivated   = "user.deactivated"
	TypeUserRoleChanged   = "user.role_changed"
	TypeTeamCreated       = "team.created"
	TypeTeamDeleted       = "team.deleted"
	TypeMemberAdded       = "team.member_added"
	TypeMemberRemoved     = "team.member_removed"
	TypeTaskCreated       = "task.created"
	TypeTaskUpdated       = "task.updated"
	TypeTaskStatusChanged = "task.status_changed"
	TypeTaskDeleted       = "task.deleted"
	TypeCommentAdded      = "comment.added"
)

// Channel is the broker queue/topic all activity events go to.
const Channel = "teamtrack.activity"

// Event is a single activity record for external integrations: audit
// trails, chat hooks, dashboards. Delivery is best-effort.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	ActorID    int            `json:"actor_id,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// New builds an event stamped with the current time.
func New(eventType string, actorID int, fields map[string]any) Event {
	return Event{
		Type:       eventType,
		OccurredAt: time.Now(),
		ActorID:    actorID,
		Fields:     fields,
	}
}

// Publisher delivers activity events to a broker. Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewPublisher constructs the backend selected by config. Backend "none"
// yields a publisher that drops every event.
func NewPublisher(ctx context.Context, cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return NopPublisher{}, nil
	case "rabbitmq":
		return NewRabbitMQPublisher(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubPublisher(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NopPublisher discards events. Used when no broker is configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NopPublisher) Close() error                                   { return nil }

func encode(event Event) ([]byte, error) {
	return json.Marshal(event)
}

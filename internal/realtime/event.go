package realtime

import (
	"context"

	types "github.com/yungbote/courseguide-backend/internal/domain"
)

type EventType string

const (
	EventGuideCreated EventType = "created"
	EventGuideDeleted EventType = "deleted"
)

// Event is one change to a user's guide-request history.
type Event struct {
	Type   EventType           `json:"type"`
	UserID string              `json:"userId"`
	Record *types.GuideRequest `json:"record,omitempty"`
}

// Relay carries events between instances. bus.Bus satisfies it.
type Relay interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(Event)) error
}

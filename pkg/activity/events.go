package activity

import (
	"context"
	"strings"
	"time"
)

// EventInput describes the common fields used when building a bus event.
type EventInput struct {
	ObjectType string
	ObjectID   string
	Channel    string
	Payload    any
	Metadata   map[string]any
	OccurredAt time.Time
}

// Build constructs an event named name. ObjectID falls back to ObjectType and
// then to the event name so audit sinks always receive an identifier.
func Build(name string, input EventInput) Event {
	name = strings.TrimSpace(name)
	objectType := strings.TrimSpace(input.ObjectType)
	if objectType == "" {
		objectType = name
	}
	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = objectType
	}
	return Event{
		Name:       name,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Payload:    input.Payload,
		Metadata:   cloneMap(input.Metadata),
		OccurredAt: input.OccurredAt,
	}
}

// On subscribes fn to name, delivering only events whose payload is a T.
// Events carrying another payload type are ignored.
func On[T any](e *Emitter, name string, fn func(ctx context.Context, payload T) error) func() {
	if fn == nil {
		return func() {}
	}
	return e.Subscribe(name, HookFunc(func(ctx context.Context, event Event) error {
		payload, ok := event.Payload.(T)
		if !ok {
			return nil
		}
		return fn(ctx, payload)
	}))
}

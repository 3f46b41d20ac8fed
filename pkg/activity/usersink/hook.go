// Package usersink records bus events in a go-users activity trail.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-choices/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook writes one ActivityRecord per bus event. Payloads implementing
// activity.Describer contribute their fields to the record data.
type Hook struct {
	Sink usertypes.ActivitySink
	// ActorID attributes every record to a fixed actor, typically the
	// service account running the process.
	ActorID string
	// Verbs restricts the hook to these event names. Empty records all.
	Verbs []string
}

// Notify forwards the event to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if event.Name == "" || !h.records(event.Name) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := map[string]any{"event_id": event.ID}
	if d, ok := event.Payload.(activity.Describer); ok {
		for key, value := range d.ActivityData() {
			data[key] = value
		}
	}
	for key, value := range event.Metadata {
		data[key] = value
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    actor(h.ActorID),
		Verb:       event.Name,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	})
}

func (h Hook) records(name string) bool {
	if len(h.Verbs) == 0 {
		return true
	}
	for _, verb := range h.Verbs {
		if verb == name {
			return true
		}
	}
	return false
}

// actor parses id, falling back to uuid.Nil for anonymous processes.
func actor(id string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

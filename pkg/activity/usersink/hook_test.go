package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	actorID := uuid.New()
	hook := usersink.Hook{Sink: sink, ActorID: actorID.String()}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := activity.Event{
		ID:         "evt-1",
		Name:       "dropdown-selection-changed",
		ObjectType: "dropdown",
		ObjectID:   "party-filter",
		Channel:    "choices",
		Metadata:   map[string]any{"selected": 2},
		Payload:    "not described",
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.Verb != "dropdown-selection-changed" || record.ObjectType != "dropdown" || record.ObjectID != "party-filter" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "choices" {
		t.Fatalf("expected channel choices got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["selected"] != 2 || record.Data["event_id"] != "evt-1" {
		t.Fatalf("unexpected record data %v", record.Data)
	}
}

type selection struct {
	values []string
}

func (s selection) ActivityData() map[string]any {
	return map[string]any{"selected": len(s.values)}
}

func TestHookNotifyDescribesPayloadAndFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{"dropdown-selection-changed"}}

	changed := activity.Build("dropdown-selection-changed", activity.EventInput{
		ObjectType: "dropdown",
		ObjectID:   "party-filter",
		Payload:    selection{values: []string{"P1", "P2"}},
	})
	if err := hook.Notify(context.Background(), changed); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := hook.Notify(context.Background(), activity.Build("dropdown-searched", activity.EventInput{})); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected only the selection change recorded, got %d", len(sink.records))
	}
	if sink.records[0].Data["selected"] != 2 {
		t.Fatalf("expected payload summary in data, got %v", sink.records[0].Data)
	}
}

func TestHookNotifySkipsUnnamedEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookOnEmitterDefaultsActorAndTimestamp(t *testing.T) {
	sink := &recordingSink{}
	emitter := activity.NewEmitter(activity.Hooks{usersink.Hook{Sink: sink}}, activity.Config{Enabled: true})

	if err := emitter.Emit(context.Background(), activity.Build("cache-cleared", activity.EventInput{})); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor, got %s", sink.records[0].ActorID)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Name:     " category-updated ",
		ObjectID: " parties ",
		Channel:  " choices ",
		Metadata: meta,
	}

	got := NormalizeEvent(evt)

	if got.Name != "category-updated" || got.ObjectID != "parties" || got.Channel != "choices" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ObjectType != "category-updated" {
		t.Fatalf("expected object type to fall back to name, got %q", got.ObjectType)
	}
	if got.ID == "" {
		t.Fatalf("expected ID to be assigned")
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingName(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return boom1 }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Name: "dropdown-loaded"})
	if err == nil || !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterHooksDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter hooks to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Name: "category-updated"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), Event{Name: "category-updated"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != "choices" {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannelAndTimestamp(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{Name: "data-updated", Channel: "custom", OccurredAt: at})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestEmitterSubscribeByNameAndUnsubscribe(t *testing.T) {
	emitter := NewEmitter(nil, Config{})
	named := &CaptureHook{}
	all := &CaptureHook{}

	unsubscribe := emitter.Subscribe("dropdown-loaded", named)
	emitter.Subscribe(AnyEvent, all)

	_ = emitter.Emit(context.Background(), Event{Name: "dropdown-loaded"})
	_ = emitter.Emit(context.Background(), Event{Name: "dropdown-error"})

	if len(named.Events) != 1 {
		t.Fatalf("expected named subscriber to see 1 event, got %d", len(named.Events))
	}
	if len(all.Events) != 2 {
		t.Fatalf("expected wildcard subscriber to see 2 events, got %d", len(all.Events))
	}

	unsubscribe()
	unsubscribe()
	if emitter.Subscribers("dropdown-loaded") != 0 {
		t.Fatalf("expected subscription removed")
	}
	_ = emitter.Emit(context.Background(), Event{Name: "dropdown-loaded"})
	if len(named.Events) != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(named.Events))
	}
}

func TestEmitterContinuesAfterSubscriberError(t *testing.T) {
	emitter := NewEmitter(nil, Config{})
	boom := errors.New("boom")
	capture := &CaptureHook{}
	emitter.Subscribe("category-error", HookFunc(func(context.Context, Event) error { return boom }))
	emitter.Subscribe("category-error", capture)

	err := emitter.Emit(context.Background(), Event{Name: "category-error"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected subscriber error surfaced, got %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected later subscriber notified, got %d", len(capture.Events))
	}
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *Emitter
	unsubscribe := emitter.Subscribe("x", &CaptureHook{})
	unsubscribe()
	if err := emitter.Emit(context.Background(), Event{Name: "x"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

type testPayload struct {
	Key string
}

func TestOnFiltersPayloadType(t *testing.T) {
	emitter := NewEmitter(nil, Config{})
	var keys []string
	On(emitter, "load-success", func(_ context.Context, p testPayload) error {
		keys = append(keys, p.Key)
		return nil
	})

	_ = emitter.Emit(context.Background(), Build("load-success", EventInput{Payload: testPayload{Key: "parties"}}))
	_ = emitter.Emit(context.Background(), Build("load-success", EventInput{Payload: "not a payload"}))

	if len(keys) != 1 || keys[0] != "parties" {
		t.Fatalf("expected one typed delivery, got %v", keys)
	}
}

func TestBuildFallsBackObjectFields(t *testing.T) {
	event := Build("cache-cleared", EventInput{})
	if event.ObjectType != "cache-cleared" || event.ObjectID != "cache-cleared" {
		t.Fatalf("unexpected object fields: %+v", event)
	}

	event = Build("category-updated", EventInput{ObjectType: "category", ObjectID: " states "})
	if event.ObjectType != "category" || event.ObjectID != "states" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
}

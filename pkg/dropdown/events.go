package dropdown

import (
	"context"

	"github.com/goliatone/go-choices/pkg/activity"
	"go.uber.org/zap"
)

// Notification names published by the dropdown service.
const (
	EventLoading          = "dropdown-loading"
	EventLoaded           = "dropdown-loaded"
	EventError            = "dropdown-error"
	EventSearched         = "dropdown-searched"
	EventSelectionChanged = "dropdown-selection-changed"
)

type Loading struct {
	DropdownID string
}

type Loaded struct {
	DropdownID string
	Options    []Option
	Groups     []Group
}

type Failed struct {
	DropdownID string
	Err        error
	Message    string
}

type Searched struct {
	DropdownID string
	Query      string
	Results    []Option
}

// SelectionChanged carries the selection after a change. NewValues is set by
// Select, RemovedValues by Deselect and Clear.
type SelectionChanged struct {
	DropdownID     string
	SelectedValues []string
	NewValues      []string
	RemovedValues  []string
}

func (p Failed) ActivityData() map[string]any {
	return map[string]any{"dropdown": p.DropdownID, "message": p.Message}
}

func (p SelectionChanged) ActivityData() map[string]any {
	return map[string]any{
		"dropdown": p.DropdownID,
		"selected": append([]string(nil), p.SelectedValues...),
		"added":    append([]string(nil), p.NewValues...),
		"removed":  append([]string(nil), p.RemovedValues...),
	}
}

func (s *Service) publish(ctx context.Context, name, id string, payload any) {
	if s.emitter == nil {
		return
	}
	event := activity.Build(name, activity.EventInput{
		ObjectType: "dropdown",
		ObjectID:   id,
		Payload:    payload,
	})
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("dropdown notification subscriber failed",
			zap.String("event", name),
			zap.String("dropdown", id),
			zap.Error(err),
		)
	}
}

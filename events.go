package choices

import (
	"context"

	"github.com/goliatone/go-choices/pkg/activity"
	"go.uber.org/zap"
)

// Notification names published by the option service.
const (
	EventCategoryUpdating = "category-updating"
	EventCategoryUpdated  = "category-updated"
	EventCategoryError    = "category-error"
	EventFiltersUpdated   = "filters-updated"
)

// CategoryUpdating is the payload of category-updating.
type CategoryUpdating struct {
	CategoryID string
}

// CategoryUpdated is the payload of category-updated. Options is a copy owned
// by the receiver.
type CategoryUpdated struct {
	CategoryID string
	Options    []FilterOption
}

// CategoryFailed is the payload of category-error.
type CategoryFailed struct {
	CategoryID string
	Err        error
}

// FiltersUpdated is the payload of filters-updated. DataKey is empty when
// every cached dataset was cleared.
type FiltersUpdated struct {
	DataKey            string
	AffectedCategories []string
}

func (p CategoryUpdated) ActivityData() map[string]any {
	return map[string]any{"category": p.CategoryID, "options": len(p.Options)}
}

func (p CategoryFailed) ActivityData() map[string]any {
	data := map[string]any{"category": p.CategoryID}
	if p.Err != nil {
		data["error"] = p.Err.Error()
	}
	return data
}

func (p FiltersUpdated) ActivityData() map[string]any {
	return map[string]any{"data_key": p.DataKey, "categories": append([]string(nil), p.AffectedCategories...)}
}

func (s *Service) publish(ctx context.Context, name, objectID string, payload any) {
	if s.cfg.emitter == nil {
		return
	}
	event := activity.Build(name, activity.EventInput{
		ObjectType: "category",
		ObjectID:   objectID,
		Payload:    payload,
	})
	if err := s.cfg.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("category notification subscriber failed",
			zap.String("event", name),
			zap.String("category", objectID),
			zap.Error(err),
		)
	}
}

package consistency

import (
	"context"

	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/goliatone/go-choices/pkg/loader"
	"go.uber.org/zap"
)

// EventDataUpdated is published when a dataset used by a relationship was
// reloaded. Subscribers decide whether to re-run validation.
const EventDataUpdated = "data-updated"

type DataUpdated struct {
	DataKey               string
	AffectedRelationships []string
}

func (p DataUpdated) ActivityData() map[string]any {
	return map[string]any{"data_key": p.DataKey, "relationships": append([]string(nil), p.AffectedRelationships...)}
}

func (s *Service) onLoadSuccess(ctx context.Context, payload loader.LoadSuccess) error {
	var affected []string
	for _, rel := range s.Relationships() {
		if rel.SourceEntity == payload.Key || rel.TargetEntity == payload.Key {
			affected = append(affected, rel.ID)
		}
	}
	if len(affected) == 0 {
		return nil
	}
	event := activity.Build(EventDataUpdated, activity.EventInput{
		ObjectType: "dataset",
		ObjectID:   payload.Key,
		Payload:    DataUpdated{DataKey: payload.Key, AffectedRelationships: affected},
	})
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("consistency notification subscriber failed",
			zap.String("event", EventDataUpdated),
			zap.String("key", payload.Key),
			zap.Error(err),
		)
	}
	return nil
}

package choices

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-choices/pkg/datasets"
)

// RecordMapper converts the raw record at index into an option and reports
// how complete the record is. Availability and quality are filled in by the
// generator.
type RecordMapper func(index int, record map[string]any) (FilterOption, Completeness, error)

// Source declares how one filter category is generated from a dataset.
type Source struct {
	ID           string
	Name         string
	Description  string
	DataKey      string
	MultiSelect  bool
	Required     bool
	Dependencies []string
	// Rule is an availability expression evaluated per record. Empty means
	// every option is available.
	Rule string
	Map  RecordMapper
}

func (s Source) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return InvalidConfig("category", s.ID, "id is required")
	}
	if strings.TrimSpace(s.DataKey) == "" {
		return InvalidConfig("category", s.ID, "data key is required")
	}
	if s.Map == nil {
		return InvalidConfig("category", s.ID, "record mapper is required")
	}
	for _, dep := range s.Dependencies {
		if dep == s.ID {
			return InvalidConfig("category", s.ID, "category cannot depend on itself")
		}
	}
	return nil
}

func (s Source) clone() Source {
	out := s
	out.Dependencies = append([]string(nil), s.Dependencies...)
	return out
}

// Availability rules of the built-in sources per evaluator engine.
var defaultRules = map[string]map[string]string{
	EngineExpr: {
		datasets.KeyParties:     `metadata?.status != "inactive"`,
		datasets.KeyPoliticians: `metadata?.isActive != false`,
		datasets.KeyTopics:      `isActive != false`,
		datasets.KeyPlatforms:   `isActive != false`,
	},
	EngineCEL: {
		datasets.KeyParties:     `!has(record.metadata) || !has(record.metadata.status) || record.metadata.status != "inactive"`,
		datasets.KeyPoliticians: `!has(record.metadata) || !has(record.metadata.isActive) || record.metadata.isActive != false`,
		datasets.KeyTopics:      `!has(record.isActive) || record.isActive != false`,
		datasets.KeyPlatforms:   `!has(record.isActive) || record.isActive != false`,
	},
	EngineJS: {
		datasets.KeyParties:     `!(record.metadata && record.metadata.status === "inactive")`,
		datasets.KeyPoliticians: `!(record.metadata && record.metadata.isActive === false)`,
		datasets.KeyTopics:      `record.isActive !== false`,
		datasets.KeyPlatforms:   `record.isActive !== false`,
	},
}

// DefaultRule returns the availability rule of a built-in source written
// for engine.
func DefaultRule(engine, sourceID string) string {
	if engine == "" {
		engine = EngineExpr
	}
	return defaultRules[engine][sourceID]
}

// DefaultSources returns the built-in sources with availability rules
// written for engine.
func DefaultSources(engine string) []Source {
	return []Source{
		{
			ID:          datasets.KeyParties,
			Name:        "Political Parties",
			Description: "Registered political parties",
			DataKey:     datasets.KeyParties,
			MultiSelect: true,
			Rule:        DefaultRule(engine, datasets.KeyParties),
			Map:         mapParty,
		},
		{
			ID:          datasets.KeyStates,
			Name:        "States",
			Description: "States and geographic units",
			DataKey:     datasets.KeyStates,
			MultiSelect: true,
			Map:         mapState,
		},
		{
			ID:           datasets.KeyPoliticians,
			Name:         "Politicians",
			Description:  "Tracked politicians",
			DataKey:      datasets.KeyPoliticians,
			MultiSelect:  true,
			Dependencies: []string{datasets.KeyParties, datasets.KeyStates},
			Rule:         DefaultRule(engine, datasets.KeyPoliticians),
			Map:          mapPolitician,
		},
		{
			ID:          datasets.KeyPlatforms,
			Name:        "Platforms",
			Description: "Social media platforms",
			DataKey:     datasets.KeyPlatforms,
			MultiSelect: true,
			Rule:        DefaultRule(engine, datasets.KeyPlatforms),
			Map:         mapPlatform,
		},
		{
			ID:          datasets.KeySentiment,
			Name:        "Sentiment",
			Description: "Sentiment labels",
			DataKey:     datasets.KeySentiment,
			Map:         mapSentiment,
		},
		{
			ID:          datasets.KeyTopics,
			Name:        "Topics",
			Description: "Trending topics",
			DataKey:     datasets.KeyTopics,
			MultiSelect: true,
			Rule:        DefaultRule(engine, datasets.KeyTopics),
			Map:         mapTopic,
		},
	}
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}

func mapParty(index int, record map[string]any) (FilterOption, Completeness, error) {
	party, err := datasets.Decode[datasets.Party](datasets.KeyParties, index, record, "id", "name")
	if err != nil {
		return FilterOption{}, Completeness{}, err
	}
	c := Completeness{Identity: present(party.ID) && present(party.Name)}
	c.Optional(present(party.Abbreviation))
	c.Optional(present(party.Colors.Primary))
	c.Optional(present(party.Metadata.Status))
	return FilterOption{
		Value:       party.ID,
		Label:       party.Name,
		Color:       party.Colors.Primary,
		Description: party.Abbreviation,
		Metadata: PartyMetadata{
			Abbreviation:   party.Abbreviation,
			SecondaryColor: party.Colors.Secondary,
			Status:         party.Metadata.Status,
			Founded:        party.Metadata.Founded,
		},
	}, c, nil
}

func mapState(index int, record map[string]any) (FilterOption, Completeness, error) {
	state, err := datasets.Decode[datasets.State](datasets.KeyStates, index, record, "id", "name")
	if err != nil {
		return FilterOption{}, Completeness{}, err
	}
	c := Completeness{Identity: present(state.ID) && present(state.Name)}
	c.Optional(present(state.Code))
	c.Optional(present(state.Capital))
	c.Optional(present(state.Region))
	c.Optional(state.Population > 0)
	c.Optional(state.Coordinates.Latitude != 0 || state.Coordinates.Longitude != 0)
	return FilterOption{
		Value:       state.ID,
		Label:       state.Name,
		Count:       state.Population,
		Description: state.Capital,
		Metadata: StateMetadata{
			Code:       state.Code,
			Capital:    state.Capital,
			Region:     state.Region,
			Population: state.Population,
			Latitude:   state.Coordinates.Latitude,
			Longitude:  state.Coordinates.Longitude,
		},
	}, c, nil
}

func mapPolitician(index int, record map[string]any) (FilterOption, Completeness, error) {
	p, err := datasets.Decode[datasets.Politician](datasets.KeyPoliticians, index, record, "id")
	if err != nil {
		return FilterOption{}, Completeness{}, err
	}
	name := p.DisplayName()
	c := Completeness{Identity: present(p.ID) && present(name)}
	c.Optional(present(p.PartyID))
	c.Optional(present(p.StateOfOriginID))
	c.Optional(present(p.CurrentPositionID))
	c.Optional(present(p.Gender))
	c.Optional(present(p.Metadata.VerificationStatus))
	active := p.Metadata.IsActive == nil || *p.Metadata.IsActive
	return FilterOption{
		Value:       p.ID,
		Label:       name,
		Description: p.PartyID,
		Metadata: PoliticianMetadata{
			FirstName:          p.FirstName,
			LastName:           p.LastName,
			PartyID:            p.PartyID,
			StateOfOriginID:    p.StateOfOriginID,
			CurrentPositionID:  p.CurrentPositionID,
			Gender:             p.Gender,
			VerificationStatus: p.Metadata.VerificationStatus,
			IsActive:           active,
		},
	}, c, nil
}

func mapTopic(index int, record map[string]any) (FilterOption, Completeness, error) {
	topic, err := datasets.Decode[datasets.Topic](datasets.KeyTopics, index, record, "id", "topicName")
	if err != nil {
		return FilterOption{}, Completeness{}, err
	}
	c := Completeness{Identity: present(topic.ID) && present(topic.TopicName)}
	c.Optional(present(topic.Category))
	c.Optional(len(topic.Keywords) > 0)
	c.Optional(present(topic.TrendDirection))
	c.Optional(present(topic.UrgencyLevel))
	c.Optional(topic.Mentions > 0)
	return FilterOption{
		Value:       topic.ID,
		Label:       topic.TopicName,
		Count:       topic.Mentions,
		Description: topic.Category,
		Metadata: TopicMetadata{
			Category:       topic.Category,
			Keywords:       append([]string(nil), topic.Keywords...),
			TrendDirection: topic.TrendDirection,
			UrgencyLevel:   topic.UrgencyLevel,
		},
	}, c, nil
}

func mapPlatform(index int, record map[string]any) (FilterOption, Completeness, error) {
	platform, err := datasets.Decode[datasets.Platform](datasets.KeyPlatforms, index, record, "id", "name")
	if err != nil {
		return FilterOption{}, Completeness{}, err
	}
	c := Completeness{Identity: present(platform.ID) && present(platform.Name)}
	c.Optional(present(platform.Description))
	c.Optional(present(platform.Color))
	c.Optional(present(platform.URL))
	return FilterOption{
		Value:       platform.ID,
		Label:       platform.Name,
		Color:       platform.Color,
		Description: platform.Description,
		Metadata:    PlatformMetadata{URL: platform.URL},
	}, c, nil
}

func mapSentiment(index int, record map[string]any) (FilterOption, Completeness, error) {
	label, err := datasets.Decode[datasets.SentimentLabel](datasets.KeySentiment, index, record, "id", "name")
	if err != nil {
		return FilterOption{}, Completeness{}, err
	}
	c := Completeness{Identity: present(label.ID) && present(label.Name)}
	c.Optional(present(label.Description))
	c.Optional(present(label.Color))
	c.Optional(present(label.Polarity))
	return FilterOption{
		Value:       label.ID,
		Label:       label.Name,
		Color:       label.Color,
		Description: label.Description,
		Metadata:    SentimentMetadata{Polarity: label.Polarity},
	}, c, nil
}

// MapFields builds a RecordMapper for sources without a typed record. value
// and label are dotted paths of the identity fields; optional paths count
// towards quality and are copied into FilterOption.Extra.
func MapFields(value, label string, optional ...string) RecordMapper {
	return func(_ int, record map[string]any) (FilterOption, Completeness, error) {
		if record == nil {
			return FilterOption{}, Completeness{}, fmt.Errorf("choices: nil record")
		}
		opt := FilterOption{
			Value: lookupString(record, value),
			Label: lookupString(record, label),
		}
		c := Completeness{Identity: present(opt.Value) && present(opt.Label)}
		for _, path := range optional {
			v := lookupString(record, path)
			c.Optional(present(v))
			if v == "" {
				continue
			}
			if opt.Extra == nil {
				opt.Extra = map[string]string{}
			}
			opt.Extra[path] = v
		}
		return opt, c, nil
	}
}

func lookupString(record map[string]any, path string) string {
	v, ok := datasets.Lookup(record, path)
	if !ok {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return datasets.KeyString(typed)
	}
}

package dropdown

import (
	"strings"

	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/datasets"
)

// OtherGroup collects options whose group is empty or unknown. It is always
// the last group.
const OtherGroup = "Other"

type groupLabel struct {
	id    string
	label string
}

// groupTables holds the static labels and ordering per data source. Sources
// without a table group by the raw value in first-appearance order.
var groupTables = map[string][]groupLabel{
	datasets.KeyStates: {
		{"north-west", "North West"},
		{"north-east", "North East"},
		{"north-central", "North Central"},
		{"south-west", "South West"},
		{"south-east", "South East"},
		{"south-south", "South South"},
	},
	datasets.KeyTopics: {
		{"economy", "Economy"},
		{"security", "Security"},
		{"politics", "Politics"},
		{"governance", "Governance"},
		{"health", "Health"},
		{"education", "Education"},
		{"infrastructure", "Infrastructure"},
		{"environment", "Environment"},
		{"social", "Social Issues"},
	},
	datasets.KeySentiment: {
		{"positive", "Positive"},
		{"neutral", "Neutral"},
		{"negative", "Negative"},
	},
}

func groupKey(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(value)
}

func decorate(opt choices.FilterOption) Option {
	out := Option{FilterOption: opt}
	switch meta := opt.Metadata.(type) {
	case choices.PartyMetadata:
		out.Badge = meta.Abbreviation
		out.SearchTerms = terms(meta.Abbreviation)
	case choices.StateMetadata:
		out.Group = meta.Region
		out.SearchTerms = terms(meta.Code, meta.Capital, meta.Region)
	case choices.PoliticianMetadata:
		out.Group = meta.PartyID
		if !meta.IsActive {
			out.Badge = "Inactive"
		}
		out.SearchTerms = terms(meta.FirstName, meta.LastName)
	case choices.TopicMetadata:
		out.Group = meta.Category
		out.Badge = strings.ToUpper(meta.UrgencyLevel)
		out.SearchTerms = terms(append([]string{meta.Category}, meta.Keywords...)...)
	case choices.SentimentMetadata:
		out.Group = meta.Polarity
	}
	return out
}

func terms(values ...string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// groupOptions partitions sorted options, keeping their order inside each
// group.
func groupOptions(source string, options []Option) []Group {
	table, hasTable := groupTables[source]
	byKey := map[string]*Group{}
	var dynamic []*Group
	var other *Group

	for _, opt := range options {
		key := groupKey(opt.Group)
		var target *Group
		switch {
		case key == "":
		case hasTable:
			target = byKey[key]
			if target == nil {
				for _, label := range table {
					if groupKey(label.id) == key {
						target = &Group{ID: label.id, Label: label.label}
						byKey[key] = target
						break
					}
				}
			}
		default:
			target = byKey[key]
			if target == nil {
				target = &Group{ID: key, Label: strings.TrimSpace(opt.Group)}
				byKey[key] = target
				dynamic = append(dynamic, target)
			}
		}
		if target == nil {
			if other == nil {
				other = &Group{ID: groupKey(OtherGroup), Label: OtherGroup}
			}
			target = other
		}
		target.Options = append(target.Options, opt)
	}

	var groups []Group
	if hasTable {
		for _, label := range table {
			if g := byKey[groupKey(label.id)]; g != nil {
				groups = append(groups, *g)
			}
		}
	} else {
		for _, g := range dynamic {
			groups = append(groups, *g)
		}
	}
	if other != nil {
		groups = append(groups, *other)
	}
	for i := range groups {
		groups[i].SortOrder = i
	}
	return groups
}

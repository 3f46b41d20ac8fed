package consistency

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-choices"
	"github.com/goliatone/go-choices/pkg/datasets"
	"gopkg.in/yaml.v3"
)

// Relationship declares that SourceField of every SourceEntity record must
// reference TargetField of a TargetEntity record. Entities are dataset keys
// and fields are dotted record paths.
type Relationship struct {
	ID           string `yaml:"id" json:"id" validate:"required"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	SourceEntity string `yaml:"source_entity" json:"source_entity" validate:"required"`
	SourceField  string `yaml:"source_field" json:"source_field" validate:"required"`
	TargetEntity string `yaml:"target_entity" json:"target_entity" validate:"required"`
	TargetField  string `yaml:"target_field" json:"target_field" validate:"required"`
	// Filter is an optional rule restricting which source records are
	// checked, evaluated like an availability rule.
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every required field is set.
func (r Relationship) Validate() error {
	if err := validate.Struct(r); err != nil {
		return choices.InvalidConfig("relationship", r.ID, err.Error())
	}
	return nil
}

func (r Relationship) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.SourceEntity, r.SourceField, r.TargetEntity, r.TargetField)
}

// DefaultRelationships are the foreign keys of the politician dataset.
func DefaultRelationships() []Relationship {
	return []Relationship{
		{
			ID:           "politician-party",
			Description:  "Every politician belongs to an existing party",
			SourceEntity: datasets.KeyPoliticians,
			SourceField:  "partyId",
			TargetEntity: datasets.KeyParties,
			TargetField:  "id",
		},
		{
			ID:           "politician-state",
			Description:  "Every politician originates from an existing state",
			SourceEntity: datasets.KeyPoliticians,
			SourceField:  "stateOfOriginId",
			TargetEntity: datasets.KeyStates,
			TargetField:  "id",
		},
	}
}

type relationshipFile struct {
	Relationships []Relationship `yaml:"relationships"`
}

// ParseRelationships reads relationship definitions from YAML, either a list
// or a document with a top-level "relationships" key.
func ParseRelationships(r io.Reader) ([]Relationship, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("consistency: read relationships: %w", err)
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var rels []Relationship
	if strings.HasPrefix(string(trimmed), "-") {
		if err := yaml.Unmarshal(trimmed, &rels); err != nil {
			return nil, fmt.Errorf("consistency: decode relationships: %w", err)
		}
	} else {
		var file relationshipFile
		if err := yaml.Unmarshal(trimmed, &file); err != nil {
			return nil, fmt.Errorf("consistency: decode relationships: %w", err)
		}
		rels = file.Relationships
	}

	seen := map[string]struct{}{}
	for _, rel := range rels {
		if err := rel.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[rel.ID]; dup {
			return nil, choices.InvalidConfig("relationship", rel.ID, "declared twice")
		}
		seen[rel.ID] = struct{}{}
	}
	return rels, nil
}

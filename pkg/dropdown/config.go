package dropdown

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-choices/internal/layering"
)

// SortBy selects the option ordering of a dropdown.
type SortBy string

const (
	SortLabel SortBy = "label"
	SortValue SortBy = "value"
	// SortOrder follows Config.Order; values not listed keep generation order
	// after the listed ones.
	SortOrder SortBy = "order"
	// SortUsage orders by how often each value was selected.
	SortUsage SortBy = "usage"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Text holds the display strings handed to presentation collaborators.
type Text struct {
	Placeholder string `yaml:"placeholder" json:"placeholder,omitempty"`
	Empty       string `yaml:"empty" json:"empty,omitempty"`
	Loading     string `yaml:"loading" json:"loading,omitempty"`
	Error       string `yaml:"error" json:"error,omitempty"`
}

// DefaultText is used for every display string a config leaves empty.
func DefaultText() Text {
	return Text{
		Placeholder: "Select an option",
		Empty:       "No options available",
		Loading:     "Loading options...",
		Error:       "Failed to load options",
	}
}

// Config registers a dropdown over one option source.
type Config struct {
	ID            string        `yaml:"id" json:"id" validate:"required"`
	Name          string        `yaml:"name" json:"name,omitempty"`
	DataSource    string        `yaml:"data_source" json:"data_source" validate:"required"`
	Searchable    bool          `yaml:"searchable" json:"searchable,omitempty"`
	MultiSelect   bool          `yaml:"multi_select" json:"multi_select,omitempty"`
	Grouped       bool          `yaml:"grouped" json:"grouped,omitempty"`
	SortBy        SortBy        `yaml:"sort_by" json:"sort_by,omitempty" validate:"omitempty,oneof=label value order usage"`
	SortDirection SortDirection `yaml:"sort_direction" json:"sort_direction,omitempty" validate:"omitempty,oneof=asc desc"`
	MaxOptions    int           `yaml:"max_options" json:"max_options,omitempty" validate:"gte=0"`
	Order         []string      `yaml:"order" json:"order,omitempty"`
	Text          Text          `yaml:"text" json:"text,omitempty"`
}

func (c Config) normalized() Config {
	c.ID = strings.TrimSpace(c.ID)
	c.DataSource = strings.TrimSpace(c.DataSource)
	c.SortBy = SortBy(strings.ToLower(string(c.SortBy)))
	c.SortDirection = SortDirection(strings.ToLower(string(c.SortDirection)))
	return layering.Merge(c, Config{
		Name:          c.ID,
		SortBy:        SortLabel,
		SortDirection: Ascending,
		Text:          DefaultText(),
	})
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct constraints of the config.
func (c Config) Validate() error {
	return validate.Struct(c)
}

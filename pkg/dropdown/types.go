package dropdown

import (
	"time"

	"github.com/goliatone/go-choices"
)

// Option is a filter option decorated for presentation.
type Option struct {
	choices.FilterOption
	Group       string
	Badge       string
	SearchTerms []string
	// SortOrder is the position of the option after sorting.
	SortOrder int
	// Usage is how many times the value was selected in this dropdown.
	Usage int
}

func (o Option) clone() Option {
	out := o
	out.FilterOption = choices.CloneOptions([]choices.FilterOption{o.FilterOption})[0]
	out.SearchTerms = append([]string(nil), o.SearchTerms...)
	return out
}

func cloneOptions(options []Option) []Option {
	if options == nil {
		return nil
	}
	out := make([]Option, len(options))
	for i, opt := range options {
		out[i] = opt.clone()
	}
	return out
}

// Group is an ordered partition of a grouped dropdown.
type Group struct {
	ID        string
	Label     string
	Options   []Option
	SortOrder int
}

func cloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Options = cloneOptions(g.Options)
	}
	return out
}

// State is the presentation-ready view of a dropdown. FilteredOptions is
// always the subset of Options matching SearchQuery.
type State struct {
	Options         []Option
	Groups          []Group
	FilteredOptions []Option
	SearchQuery     string
	SelectedValues  []string
	LoadingState    choices.LoadingState
	Err             error
	// Message is the display string for the current loading state.
	Message     string
	LastUpdated time.Time
}

func (s State) clone() State {
	out := s
	out.Options = cloneOptions(s.Options)
	out.Groups = cloneGroups(s.Groups)
	out.FilteredOptions = cloneOptions(s.FilteredOptions)
	out.SelectedValues = append([]string(nil), s.SelectedValues...)
	return out
}

package dropdown

import (
	"sort"
	"strings"
)

// sortOptions orders options in place by cfg. Ties keep generation order.
func sortOptions(options []Option, cfg Config, usage map[string]int) {
	var key func(a, b Option) int
	switch cfg.SortBy {
	case SortValue:
		key = func(a, b Option) int { return strings.Compare(a.Value, b.Value) }
	case SortOrder:
		rank := make(map[string]int, len(cfg.Order))
		for i, v := range cfg.Order {
			if _, ok := rank[v]; !ok {
				rank[v] = i
			}
		}
		position := func(v string) int {
			if r, ok := rank[v]; ok {
				return r
			}
			return len(cfg.Order)
		}
		key = func(a, b Option) int { return position(a.Value) - position(b.Value) }
	case SortUsage:
		key = func(a, b Option) int { return usage[a.Value] - usage[b.Value] }
	default:
		key = func(a, b Option) int {
			return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
		}
	}

	descending := cfg.SortDirection == Descending
	sort.SliceStable(options, func(i, j int) bool {
		c := key(options[i], options[j])
		if descending {
			return c > 0
		}
		return c < 0
	})
	for i := range options {
		options[i].SortOrder = i
		options[i].Usage = usage[options[i].Value]
	}
}

func matches(opt Option, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(opt.Label), query) ||
		strings.Contains(strings.ToLower(opt.Description), query) {
		return true
	}
	for _, term := range opt.SearchTerms {
		if strings.Contains(strings.ToLower(term), query) {
			return true
		}
	}
	return false
}

func filter(options []Option, query string) []Option {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Option, 0, len(options))
	for _, opt := range options {
		if matches(opt, query) {
			out = append(out, opt.clone())
		}
	}
	return out
}

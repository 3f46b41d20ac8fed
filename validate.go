package choices

import (
	"fmt"
	"strings"
)

const maxSuggestions = 3

// ValidateSelection checks values against the current options of category
// id. Unknown and unavailable values are errors with distinct codes; poor
// quality options and empty dependency categories only produce warnings.
// An unknown category is reported as a single error.
func (s *Service) ValidateSelection(id string, values []string) ValidationResult {
	s.mu.RLock()
	cat, ok := s.categories[id]
	var emptyDeps []string
	if ok {
		for _, dep := range cat.Dependencies {
			if len(s.categories[dep].Options) == 0 {
				emptyDeps = append(emptyDeps, dep)
			}
		}
	}
	options := cat.Options
	s.mu.RUnlock()

	if !ok {
		s.cfg.metrics.validated(false)
		return ValidationResult{
			Errors: []ValidationIssue{{
				Code:    IssueUnknownCategory,
				Value:   id,
				Message: fmt.Sprintf("unknown category %q", id),
			}},
		}
	}

	byValue := make(map[string]FilterOption, len(options))
	for _, opt := range options {
		byValue[opt.Value] = opt
	}

	result := ValidationResult{}
	suggested := map[string]struct{}{}
	for _, value := range values {
		opt, found := byValue[value]
		switch {
		case !found:
			result.Errors = append(result.Errors, ValidationIssue{
				Code:    IssueUnknownOption,
				Value:   value,
				Message: fmt.Sprintf("%q is not an option of %s", value, id),
			})
		case !opt.IsAvailable:
			result.Errors = append(result.Errors, ValidationIssue{
				Code:    IssueOptionUnavailable,
				Value:   value,
				Message: fmt.Sprintf("%q is currently unavailable in %s", value, id),
			})
		}
		if !found || !opt.IsAvailable {
			for _, suggestion := range suggest(options, value) {
				if _, dup := suggested[suggestion]; dup {
					continue
				}
				suggested[suggestion] = struct{}{}
				result.Suggestions = append(result.Suggestions, suggestion)
			}
		}
		if found && opt.DataQuality == QualityPoor {
			result.Warnings = append(result.Warnings, ValidationIssue{
				Code:    IssuePoorQuality,
				Value:   value,
				Message: fmt.Sprintf("%q has poor data quality", value),
			})
		}
	}
	for _, dep := range emptyDeps {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Code:    IssueDependencyEmpty,
			Value:   dep,
			Message: fmt.Sprintf("%s depends on %s, which has no options", id, dep),
		})
	}

	result.IsValid = len(result.Errors) == 0
	s.cfg.metrics.validated(result.IsValid)
	return result
}

// suggest returns up to three option values whose label or value contains
// query, ignoring case.
func suggest(options []FilterOption, query string) []string {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	var out []string
	for _, opt := range options {
		if opt.Value == query {
			continue
		}
		if strings.Contains(strings.ToLower(opt.Label), needle) || strings.Contains(strings.ToLower(opt.Value), needle) {
			out = append(out, opt.Value)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

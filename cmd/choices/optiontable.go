package main

import (
	"io"
	"strings"

	"github.com/goliatone/go-choices/pkg/dropdown"
)

func optionTable(w io.Writer, options []dropdown.Option) error {
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []string{
			opt.Value,
			opt.Label,
			opt.Badge,
			opt.Group,
			strings.Join(opt.SearchTerms, ","),
			yesNo(opt.IsAvailable),
		})
	}
	return table(w, []string{"VALUE", "LABEL", "BADGE", "GROUP", "TERMS", "AVAILABLE"}, rows)
}

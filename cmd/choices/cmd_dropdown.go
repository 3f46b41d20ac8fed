package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-choices/pkg/dropdown"
	"github.com/spf13/cobra"
)

func newDropdownCmd(flags *rootFlags) *cobra.Command {
	var (
		search    string
		sortBy    string
		direction string
		group     bool
		maxCount  int
		order     []string
	)
	cmd := &cobra.Command{
		Use:   "dropdown <source>",
		Short: "Show the presentation-ready dropdown built over a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			id := "cli-" + args[0]
			err = a.Dropdowns.Register(cmd.Context(), dropdown.Config{
				ID:            id,
				DataSource:    args[0],
				Searchable:    true,
				Grouped:       group,
				SortBy:        dropdown.SortBy(sortBy),
				SortDirection: dropdown.SortDirection(direction),
				MaxOptions:    maxCount,
				Order:         order,
			})
			if err != nil {
				return err
			}
			if _, err := a.Dropdowns.Search(cmd.Context(), id, search); err != nil {
				return err
			}
			state, err := a.Dropdowns.State(id)
			if err != nil {
				return err
			}
			if state.Err != nil {
				return fmt.Errorf("%s: %w", state.Message, state.Err)
			}

			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				return writeJSON(out, state)
			}
			if len(state.FilteredOptions) == 0 {
				fmt.Fprintln(out, state.Message)
				return nil
			}
			if group && strings.TrimSpace(search) == "" {
				for _, g := range state.Groups {
					fmt.Fprintf(out, "%s\n", g.Label)
					if err := optionTable(out, g.Options); err != nil {
						return err
					}
					fmt.Fprintln(out)
				}
				return nil
			}
			return optionTable(out, state.FilteredOptions)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter options by label, description or search terms")
	cmd.Flags().StringVar(&sortBy, "sort", "label", "sort by label, value, order or usage")
	cmd.Flags().StringVar(&direction, "direction", "asc", "sort direction: asc or desc")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "group options")
	cmd.Flags().IntVar(&maxCount, "max", 0, "maximum number of options (0 for all)")
	cmd.Flags().StringSliceVar(&order, "order", nil, "explicit value order used with --sort order")
	return cmd
}

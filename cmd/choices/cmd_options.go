package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newOptionsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "options <source>",
		Short: "List the filter options generated for a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			options, err := a.Options.GenerateOptions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				return writeJSON(out, options)
			}
			rows := make([][]string, 0, len(options))
			for _, opt := range options {
				rows = append(rows, []string{
					opt.Value,
					opt.Label,
					strconv.FormatInt(opt.Count, 10),
					string(opt.DataQuality),
					yesNo(opt.IsAvailable),
				})
			}
			return table(out, []string{"VALUE", "LABEL", "COUNT", "QUALITY", "AVAILABLE"}, rows)
		},
	}
}

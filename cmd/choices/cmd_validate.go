package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInvalidSelection = errors.New("selection is invalid")

func newValidateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <category> [values...]",
		Short: "Validate a selection against the current options of a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			category := args[0]
			// Load the category and its dependencies so warnings see real data.
			if src, ok := a.Options.Source(category); ok {
				for _, dep := range src.Dependencies {
					_ = a.Options.RefreshCategory(cmd.Context(), dep)
				}
				_ = a.Options.RefreshCategory(cmd.Context(), category)
			}

			result := a.Options.ValidateSelection(category, args[1:])
			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				p := newPalette(out)
				fmt.Fprintf(out, "valid: %s\n", p.verdict(result.IsValid))
				for _, issue := range result.Errors {
					fmt.Fprintf(out, "%s   %-20s %s\n", p.bad.Render("error"), issue.Code, issue.Message)
				}
				for _, issue := range result.Warnings {
					fmt.Fprintf(out, "%s %-20s %s\n", p.warn.Render("warning"), issue.Code, issue.Message)
				}
				for _, s := range result.Suggestions {
					fmt.Fprintf(out, "did you mean: %s\n", s)
				}
			}
			if !result.IsValid {
				return errInvalidSelection
			}
			return nil
		},
	}
}

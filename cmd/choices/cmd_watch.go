package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-choices/pkg/activity"
	"github.com/spf13/cobra"
)

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the data directory and print every event the services publish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			unsubscribe := a.Emitter.Subscribe(activity.AnyEvent, activity.HookFunc(func(_ context.Context, event activity.Event) error {
				if flags.jsonOutput {
					return writeJSON(out, map[string]any{
						"id":          event.ID,
						"name":        event.Name,
						"object_type": event.ObjectType,
						"object_id":   event.ObjectID,
						"occurred_at": event.OccurredAt,
					})
				}
				_, err := fmt.Fprintf(out, "%s %-28s %s/%s\n",
					event.OccurredAt.Format(time.RFC3339), event.Name, event.ObjectType, event.ObjectID)
				return err
			}))
			defer unsubscribe()

			// Prime every category so later file changes have something to refresh.
			_ = a.Options.Categories(cmd.Context())

			watcher, err := a.Watch(cmd.Context())
			if err != nil {
				return err
			}
			defer watcher.Stop()
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", a.Files.Dir())

			<-cmd.Context().Done()
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphataylor/WebGraph/internal/app"
)

func newTagsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List and manage tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				tags, err := a.Bookmarks.ListTags(ctx)
				if err != nil {
					return err
				}
				g := a.Controller.Graph()
				for _, t := range tags {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-24s sites=%d\n", t.ID, t.Name, g.Degree(t.ID))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add [name]",
			Short: "Create a tag",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					tag, err := a.Controller.AddTag(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tag.ID, tag.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm [id]",
			Short: "Delete a tag and strip it from every bookmark",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					return a.Controller.RemoveTag(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "rename [id] [name]",
			Short: "Rename a tag",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					tag, err := a.Controller.RenameTag(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tag.ID, tag.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Delete tags no bookmark uses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					removed, err := a.Controller.CleanupOrphans(ctx)
					if err != nil {
						return err
					}
					for _, t := range removed {
						fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", t.ID, t.Name)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/bookmarks"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var in bookmarks.SiteInput
	cmd := &cobra.Command{
		Use:   "add [url]",
		Short: "Add a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.URL = args[0]
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				site, err := a.Controller.AddBookmark(ctx, &in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", site.ID, site.URL)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "Bookmark title")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "Tag name (repeatable or comma separated)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&in.Favicon, "favicon", "", "Favicon URL")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List bookmarks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sites, err := a.Bookmarks.ListBookmarks(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return printJSON(out, sites)
				}
				for _, s := range sites {
					fmt.Fprintf(out, "%-10s %-40s %s [%s] visits=%d\n",
						s.ID, s.Title, s.URL, strings.Join(s.Tags, ", "), s.Visits)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Remove a bookmark and its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Controller.RemoveBookmark(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newVisitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "visit [id]",
		Short: "Record a visit of a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				site, err := a.Controller.Visit(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s visits=%d\n", site.ID, site.Visits)
				return nil
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title, url, notes, favicon string
		tags                       []string
	)
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change fields of a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch bookmarks.SitePatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("url") {
				patch.URL = &url
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("favicon") {
				patch.Favicon = &favicon
			}
			if flags.Changed("tag") {
				patch.Tags = &tags
			}
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				site, err := a.Controller.UpdateBookmark(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), site)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&url, "url", "", "New URL")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().StringVar(&favicon, "favicon", "", "New favicon URL")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace the tag list")
	return cmd
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every bookmark, tag and snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Controller.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the wipe")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/snapshots"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and fetch page previews",
	}

	var dataURI bool
	get := &cobra.Command{
		Use:   "get [id] [file]",
		Short: "Write the snapshot of a bookmark to a file, or stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				blob, found, err := a.Snapshots.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return apperrors.NewNotFound("no snapshot for %q", args[0])
				}
				if dataURI {
					blob = []byte(snapshots.DataURI(mimetype.Detect(blob).String(), blob))
				}
				if len(args) == 2 {
					return os.WriteFile(args[1], blob, 0o644)
				}
				_, err = cmd.OutOrStdout().Write(blob)
				return err
			})
		},
	}
	get.Flags().BoolVar(&dataURI, "data-uri", false, "Encode the snapshot as a data URI")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put [id] [file]",
			Short: "Store a file as the snapshot of a bookmark",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				blob, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					if _, err := a.Bookmarks.Get(ctx, args[0]); err != nil {
						return err
					}
					if err := a.Snapshots.Put(ctx, args[0], blob); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%s, %d bytes)\n",
						args[0], mimetype.Detect(blob).String(), len(blob))
					return nil
				})
			},
		},
		get,
		&cobra.Command{
			Use:   "ls",
			Short: "List bookmarks that have a snapshot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					ids, err := a.Snapshots.IDs(ctx)
					if err != nil {
						return err
					}
					for _, id := range ids {
						fmt.Fprintln(cmd.OutOrStdout(), id)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm [id]",
			Short: "Delete the snapshot of a bookmark",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					return a.Snapshots.Delete(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/settings"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change layout and display parameters",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print all parameters, or one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					st := a.Controller.Settings()
					if len(args) == 0 {
						return printJSON(cmd.OutOrStdout(), st)
					}
					if !settings.IsKnown(args[0]) {
						return fmt.Errorf("unknown setting %q", args[0])
					}
					fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(st.Map()[args[0]], 'g', -1, 64))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set key=value...",
			Short: "Change one or more parameters",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				values, err := parseAssignments(args)
				if err != nil {
					return err
				}
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					st, err := a.Controller.ApplySettings(ctx, values)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), st)
				})
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
					st, err := a.Controller.ResetSettings(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), st)
				})
			},
		},
	)
	return cmd
}

func parseAssignments(args []string) (map[string]float64, error) {
	values := make(map[string]float64, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
		values[key] = v
	}
	return values, nil
}

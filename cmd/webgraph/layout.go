package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/app"
	"github.com/raphataylor/WebGraph/internal/view"
)

func newLayoutCmd(opts *rootOptions) *cobra.Command {
	var (
		format   string
		maxTicks int
		query    string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Run the simulation to rest and print the resulting frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "svg" {
				return fmt.Errorf("unknown format %q", format)
			}
			return opts.withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if query != "" {
					a.Controller.Search(query)
				}
				n, err := a.Controller.Settle(ctx, maxTicks)
				if err != nil {
					return err
				}
				a.Logger.Debug("layout settled", zap.Int("ticks", n))

				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				frame := a.Controller.Frame()
				if format == "svg" {
					return view.WriteSVG(w, frame)
				}
				return printJSON(w, frame)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or svg")
	cmd.Flags().IntVar(&maxTicks, "ticks", 0, "Stop after this many ticks (0 runs to convergence)")
	cmd.Flags().StringVarP(&query, "search", "s", "", "Highlight nodes matching these comma separated terms")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

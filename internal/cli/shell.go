package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

func newStatusCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := g.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return g.render(cmd.OutOrStdout(), h, func(tw *tabwriter.Writer) {
				_, _ = fmt.Fprintf(tw, "status:\t%s\n", h.Status)
				_, _ = fmt.Fprintf(tw, "layout:\t%s\n", h.Layout)
				_, _ = fmt.Fprintf(tw, "regions:\t%d\n", h.Regions)
				_, _ = fmt.Fprintf(tw, "tasks:\t%d\n", h.Tasks)
				_, _ = fmt.Fprintf(tw, "uptime:\t%.0fs\n", h.UptimeSeconds)
			})
		},
	}
}

func newRegionsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List registered regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			regions, err := g.client.Regions(cmd.Context())
			if err != nil {
				return err
			}
			return g.render(cmd.OutOrStdout(), regions, func(tw *tabwriter.Writer) {
				_, _ = fmt.Fprintln(tw, "REGION\tLAYER\tVISIBLE\tBOUNDS")
				for _, r := range regions {
					_, _ = fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", r.ID, r.Layer, r.Visible, rect(r.Bounds))
				}
			})
		},
	}
}

func newTasksCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List embedded tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := g.client.Tasks(cmd.Context())
			if err != nil {
				return err
			}
			return g.render(cmd.OutOrStdout(), tasks, func(tw *tabwriter.Writer) {
				_, _ = fmt.Fprintln(tw, "ID\tNAME\tKIND\tREGION\tSTATE\tTASK\tRESTARTS")
				for _, t := range tasks {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
						t.ID, t.Name, t.Kind, t.Region, t.State, t.TaskID, t.Restarts)
				}
			})
		},
	}
}

func newLayoutCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "layout [CONTROL_BAR|DEFAULT|FULL]",
		Short: "Show the layout, or animate to a state",
		Long: `Without an argument, show the current layout state and running animations.
With a state, start an animation toward it.

Examples:
  shellctl layout
  shellctl layout default`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				state, err := types.ParseLayoutState(args[0])
				if err != nil {
					return err
				}
				if err := g.client.SetLayout(cmd.Context(), state); err != nil {
					return err
				}
				done(cmd, "Animating to %s", state)
				return nil
			}

			l, err := g.client.Layout(cmd.Context())
			if err != nil {
				return err
			}
			return g.render(cmd.OutOrStdout(), l, func(tw *tabwriter.Writer) {
				_, _ = fmt.Fprintf(tw, "state:\t%s\n", l.Status.State)
				_, _ = fmt.Fprintf(tw, "visible:\t%t\n", l.Status.Visible)
				_, _ = fmt.Fprintf(tw, "animating:\t%t\n", l.Status.Animating)
				_, _ = fmt.Fprintf(tw, "dragging:\t%t\n", l.Status.Dragging)
				_, _ = fmt.Fprintf(tw, "animations:\t%d\n", len(l.Animations))
			})
		},
	}
}

func newBoundsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "bounds STATE",
		Short: "Show the region rectangles computed for a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := types.ParseLayoutState(args[0])
			if err != nil {
				return err
			}
			b, err := g.client.Bounds(cmd.Context(), state)
			if err != nil {
				return err
			}
			return g.render(cmd.OutOrStdout(), b, func(tw *tabwriter.Writer) {
				_, _ = fmt.Fprintln(tw, "REGION\tBOUNDS")
				for _, rid := range types.AllRegions() {
					_, _ = fmt.Fprintf(tw, "%s\t%s\n", rid, rect(b.For(rid)))
				}
			})
		},
	}
}

func newInsetsCommand(g *globals) *cobra.Command {
	var insets types.Rect
	cmd := &cobra.Command{
		Use:   "insets EMBEDDING_ID",
		Short: "Apply insets to an embedded task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.client.SetInsets(cmd.Context(), id.EmbeddingID(args[0]), insets); err != nil {
				return err
			}
			done(cmd, "Insets applied to %s", args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&insets.Left, "left", 0, "left inset in pixels")
	cmd.Flags().IntVar(&insets.Top, "top", 0, "top inset in pixels")
	cmd.Flags().IntVar(&insets.Right, "right", 0, "right inset in pixels")
	cmd.Flags().IntVar(&insets.Bottom, "bottom", 0, "bottom inset in pixels")
	return cmd
}

func newLogLevelCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "log-level [LEVEL]",
		Short: "Show or change the daemon's log level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := g.client.SetLogLevel(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			level, err := g.client.LogLevel(cmd.Context())
			if err != nil {
				return err
			}
			done(cmd, "%s", level)
			return nil
		},
	}
}

func rect(r types.Rect) string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

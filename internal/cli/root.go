// Package cli provides the shellctl command-line interface.
package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/client"
)

// Command group IDs.
const (
	groupShell  = "shell"
	groupDevice = "device"
)

type globals struct {
	url    string
	json   bool
	client *client.Client
	cfg    client.Config
}

// NewRootCommand creates the root command for shellctl.
func NewRootCommand(version string) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "shellctl",
		Short: "Control a running home shell",
		Long: `shellctl talks to the home shell daemon's control API.

It inspects regions, embedded tasks and the layout, moves the layout
between states, posts platform signals and drives the simulated device.

The daemon address comes from --url, then $SHELLCTL_URL, then
http://localhost:8000.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := client.ConfigFromEnv()
			if err != nil {
				return err
			}
			if g.url != "" {
				cfg.URL = g.url
			}
			g.cfg = cfg
			g.client = client.New(cfg, nil)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&g.url, "url", "", "shell daemon URL")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "print JSON instead of tables")

	root.AddGroup(
		&cobra.Group{ID: groupShell, Title: "Shell Commands:"},
		&cobra.Group{ID: groupDevice, Title: "Device Commands:"},
	)

	for _, cmd := range []*cobra.Command{
		newStatusCommand(g),
		newRegionsCommand(g),
		newTasksCommand(g),
		newLayoutCommand(g),
		newBoundsCommand(g),
		newInsetsCommand(g),
		newSignalCommand(g),
		newLogLevelCommand(g),
		newWatchCommand(g),
	} {
		cmd.GroupID = groupShell
		root.AddCommand(cmd)
	}
	sim := newSimCommand(g)
	sim.GroupID = groupDevice
	root.AddCommand(sim)

	return root
}

// render prints v as JSON under --json, otherwise through table
func (g *globals) render(w io.Writer, v any, table func(tw *tabwriter.Writer)) error {
	if g.json {
		data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func done(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

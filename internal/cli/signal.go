package cli

import (
	"github.com/spf13/cobra"

	apihttp "github.com/GriffinCanCode/AgentOS/homeshell/internal/api/http"
)

func newSignalCommand(g *globals) *cobra.Command {
	var sig apihttp.Signal

	cmd := &cobra.Command{
		Use:   "signal TYPE",
		Short: "Post a platform signal to the shell",
		Long: `Post one platform signal as if the device had emitted it.

Types: package, user, host, display, focus, task-created, restart-attempt, drag.

Examples:
  # The host activity came back to the foreground
  shellctl signal host --action resumed

  # A package was updated
  shellctl signal package --action replaced --package com.example.maps

  # Drag the foreground region
  shellctl signal drag --action start --y 400
  shellctl signal drag --action move --y 250
  shellctl signal drag --action end --y 250`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig.Type = args[0]
			// validate locally so a typo never reaches the daemon
			if _, err := sig.Event(); err != nil {
				return err
			}
			if err := g.client.Signal(cmd.Context(), sig); err != nil {
				return err
			}
			done(cmd, "Signal %s posted", sig.Type)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&sig.Action, "action", "", "signal variant, e.g. added, unlocked, resumed, start")
	f.StringVar(&sig.Package, "package", "", "package name")
	f.IntVar(&sig.TaskID, "task", 0, "task id")
	f.StringVar(&sig.Component, "component", "", "component as package/class")
	f.BoolVar(&sig.Focused, "focused", false, "focus state for focus signals")
	f.BoolVar(&sig.HomeVisible, "home-visible", false, "home task visible for restart-attempt signals")
	f.IntVar(&sig.UserID, "user", 0, "user id")
	f.IntVar(&sig.PreviousUserID, "previous-user", 0, "previous user id for switching")
	f.StringVar(&sig.Display, "display", "", "display state: on, off or unknown")
	f.IntVar(&sig.Width, "width", 0, "display width")
	f.IntVar(&sig.Height, "height", 0, "display height")
	f.Float64Var(&sig.Y, "y", 0, "pointer y for drag signals")
	return cmd
}

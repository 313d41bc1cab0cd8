package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apihttp "github.com/GriffinCanCode/AgentOS/homeshell/internal/api/http"
)

func newSimCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Drive the simulated device",
		Long: `Drive the simulated device the daemon runs against. These commands
exist only when the daemon uses the in-memory platform.`,
	}
	cmd.AddCommand(
		newSimTasksCommand(g),
		newSimLaunchCommand(g),
		newSimTaskActionCommand("crash", "Kill a task's process", g.crash),
		newSimTaskActionCommand("evict", "Remove a task to reclaim memory", g.evict),
		newSimTaskActionCommand("focus", "Move focus to a task", g.focus),
		newSimPackageCommand(g),
		newSimUserCommand(g),
		newSimDisplayCommand(g),
	)
	return cmd
}

func newSimTasksCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List every task on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := g.client.DeviceTasks(cmd.Context())
			if err != nil {
				return err
			}
			return g.render(cmd.OutOrStdout(), tasks, func(tw *tabwriter.Writer) {
				_, _ = fmt.Fprintln(tw, "TASK\tTOP ACTIVITY\tPARENT\tUSER\tVISIBLE")
				for _, t := range tasks {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%t\n",
						t.TaskID, t.TopActivity, t.ParentTaskID, t.UserID, t.Visible)
				}
			})
		},
	}
}

func newSimLaunchCommand(g *globals) *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "launch COMPONENT",
		Short: "Start an activity as an external app would",
		Long: `Start an activity on the device. Without --region it lands in the
default task container, where the shell may claim it.

Examples:
  shellctl sim launch com.example.music/.Player
  shellctl sim launch com.example.maps/.Main --region background`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.client.Launch(cmd.Context(), args[0], region); err != nil {
				return err
			}
			done(cmd, "Launched %s", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "launch into this shell region")
	return cmd
}

func (g *globals) crash(cmd *cobra.Command, taskID int) error {
	return g.client.CrashTask(cmd.Context(), taskID)
}

func (g *globals) evict(cmd *cobra.Command, taskID int) error {
	return g.client.EvictTask(cmd.Context(), taskID)
}

func (g *globals) focus(cmd *cobra.Command, taskID int) error {
	return g.client.FocusTask(cmd.Context(), taskID)
}

func newSimTaskActionCommand(name, short string, action func(*cobra.Command, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " TASK_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			if err := action(cmd, taskID); err != nil {
				return err
			}
			done(cmd, "Task %d: %s", taskID, name)
			return nil
		},
	}
}

func newSimPackageCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "package install|remove PACKAGE",
		Short:     "Install or remove a package",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"install", "remove"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch args[0] {
			case "install":
				err = g.client.InstallPackage(cmd.Context(), args[1])
			case "remove":
				err = g.client.RemovePackage(cmd.Context(), args[1])
			default:
				return fmt.Errorf("unknown package action %q", args[0])
			}
			if err != nil {
				return err
			}
			done(cmd, "Package %s: %s", args[1], args[0])
			return nil
		},
	}
}

func newSimUserCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "user USER_ID lock|unlock|switch",
		Short: "Lock, unlock or switch to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			if err := g.client.User(cmd.Context(), userID, args[1]); err != nil {
				return err
			}
			done(cmd, "User %d: %s", userID, args[1])
			return nil
		},
	}
}

func newSimDisplayCommand(g *globals) *cobra.Command {
	var req apihttp.DisplayRequest
	cmd := &cobra.Command{
		Use:   "display on|off",
		Short: "Change the display power state or size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.State = args[0]
			if err := g.client.SetDisplay(cmd.Context(), req); err != nil {
				return err
			}
			done(cmd, "Display %s", req.State)
			return nil
		},
	}
	cmd.Flags().IntVar(&req.Width, "width", 0, "new display width")
	cmd.Flags().IntVar(&req.Height, "height", 0, "new display height")
	return cmd
}

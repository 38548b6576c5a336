package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/robocmd/pkg/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the scheduler state of a running simulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get(cmd.Context(), "/api/v1/scheduler")
			if err != nil {
				return fmt.Errorf("get scheduler: %w", err)
			}

			var snap model.SchedulerSnapshot
			if err := json.Unmarshal(resp.Data, &snap); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func printSnapshot(w io.Writer, snap model.SchedulerSnapshot) {
	mode := "enabled"
	if snap.Disabled {
		mode = "disabled"
	}
	fmt.Fprintf(w, "Cycle: %d (%s)\n", snap.Cycle, mode)

	if len(snap.Commands) == 0 {
		fmt.Fprintln(w, "No commands scheduled.")
	} else {
		fmt.Fprintf(w, "%-24s  %-16s  %-8s  %s\n", "COMMAND", "INTERRUPT", "PAUSED", "REQUIRES")
		for _, c := range snap.Commands {
			fmt.Fprintf(w, "%-24s  %-16s  %-8t  %s\n", c.Name, c.InterruptionBehavior, c.Paused, strings.Join(c.Requirements, ","))
		}
	}

	if len(snap.Subsystems) > 0 {
		fmt.Fprintln(w, "Subsystems:")
		for _, s := range snap.Subsystems {
			owner := s.Owner
			if owner == "" {
				owner = "-"
			}
			line := fmt.Sprintf("  - %s: %s", s.Name, owner)
			if s.DefaultCommand != "" {
				line += fmt.Sprintf(" (default %s)", s.DefaultCommand)
			}
			fmt.Fprintln(w, line)
		}
	}
}

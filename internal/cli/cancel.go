package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "cancel [command_name]",
		Short: "Cancel a scheduled command on a running simulator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			switch {
			case all && len(args) == 0:
				path = "/api/v1/scheduler/cancel-all"
			case !all && len(args) == 1:
				path = "/api/v1/commands/" + url.PathEscape(args[0]) + "/cancel"
			default:
				return errors.New("give exactly one of a command name or --all")
			}

			resp, err := client.Post(cmd.Context(), path, nil)
			if err != nil {
				return fmt.Errorf("cancel: %w", err)
			}
			return printAccepted(cmd, resp)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Cancel every scheduled command")
	return cmd
}

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode <enable|disable>",
		Short:     "Enable or disable the simulated robot",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"enable", "disable"},
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post(cmd.Context(), "/api/v1/robot/"+args[0], nil)
			if err != nil {
				return fmt.Errorf("%s robot: %w", args[0], err)
			}
			return printAccepted(cmd, resp)
		},
	}
}

func printAccepted(cmd *cobra.Command, resp *apiResponse) error {
	var data struct {
		Action  string `json:"action"`
		Command string `json:"command"`
		Cycle   uint64 `json:"queued_at_cycle"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	out := cmd.OutOrStdout()
	if data.Command != "" {
		fmt.Fprintf(out, "Queued %s %s after cycle %d\n", data.Action, data.Command, data.Cycle)
	} else {
		fmt.Fprintf(out, "Queued %s after cycle %d\n", data.Action, data.Cycle)
	}
	return nil
}

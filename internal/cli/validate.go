package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/robocmd/internal/scenario"
	"github.com/me/robocmd/pkg/model"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if err := scenario.Validate(s); err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					fmt.Fprintf(out, "%s: invalid\n", args[0])
					for _, d := range apiErr.Details {
						fmt.Fprintf(out, "  - %s: %s\n", d.Field, d.Message)
					}
				}
				return fmt.Errorf("validate %s: %w", args[0], err)
			}

			fmt.Fprintf(out, "%s: valid\n", args[0])
			fmt.Fprintf(out, "  Scenario:   %s\n", s.Name)
			fmt.Fprintf(out, "  Subsystems: %d\n", len(s.Subsystems))
			fmt.Fprintf(out, "  Commands:   %d\n", len(s.Commands))
			fmt.Fprintf(out, "  Timeline:   %d actions\n", len(s.Timeline))
			return nil
		},
	}
}

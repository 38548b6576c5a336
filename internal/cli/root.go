package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/robocmd/internal/config"
	"github.com/me/robocmd/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the dashboard URL, checking ROBOCMD_SERVER first.
func defaultServer() string {
	if s := os.Getenv("ROBOCMD_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the robocmd CLI.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultSimConfig()

	root := &cobra.Command{
		Use:   "robocmd",
		Short: "robocmd: cooperative command scheduler and simulator",
		Long: `robocmd runs command-based robot programs against simulated subsystems,
records lifecycle journals, and talks to a running simulator's dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadSimConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				flagLogLevel = env.LogLevel
			}
			if !cmd.Flags().Changed("log-format") {
				flagLogFormat = env.LogFormat
			}
			if flagDebug {
				flagLogLevel = "debug"
			}

			level, err := logging.ParseLevel(flagLogLevel)
			if err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			logger = logging.NewWithWriter(level, flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Dashboard URL for status, cancel and mode (or ROBOCMD_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", defaults.LogFormat, "Log format (text, json)")

	root.AddCommand(
		newSimCmd(),
		newValidateCmd(),
		newJournalCmd(),
		newStatusCmd(),
		newCancelCmd(),
		newModeCmd(),
	)

	return root
}

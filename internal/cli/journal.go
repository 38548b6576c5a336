package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/robocmd/internal/journal"
	"github.com/me/robocmd/pkg/model"
)

func newJournalCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect a recorded lifecycle journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Journal database path (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newJournalSessionsCmd(&dbPath), newJournalListCmd(&dbPath))
	return cmd
}

func openJournal(cmd *cobra.Command, dbPath string) (*journal.SQLiteStore, error) {
	st, err := journal.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return st, nil
}

func newJournalSessionsCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openJournal(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions, err := st.Sessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			fmt.Fprintf(out, "%-40s  %-8s  %-30s  %s\n", "SESSION", "ENTRIES", "FIRST", "LAST")
			fmt.Fprintf(out, "%-40s  %-8s  %-30s  %s\n", "-------", "-------", "-----", "----")
			for _, s := range sessions {
				fmt.Fprintf(out, "%-40s  %-8d  %-30s  %s\n", s.ID, s.Entries,
					s.FirstSeen.Format(time.RFC3339Nano), s.LastSeen.Format(time.RFC3339Nano))
			}
			return nil
		},
	}
}

func newJournalListCmd(dbPath *string) *cobra.Command {
	var session string
	opts := model.DefaultListOptions()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries in recording order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Kind = strings.ToUpper(opts.Kind)
			opts.Clamp()
			if opts.Kind != "" && !model.LifecycleKind(opts.Kind).IsValid() {
				return fmt.Errorf("--kind must be INITIALIZE, EXECUTE, FINISH or INTERRUPT, got %q", opts.Kind)
			}
			st, err := openJournal(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			entries, total, err := st.List(cmd.Context(), session, opts)
			if err != nil {
				return fmt.Errorf("list journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries found.")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %-24s  %-10s  %s\n", "CYCLE", "COMMAND", "KIND", "INTERRUPTED BY")
			fmt.Fprintf(out, "%-8s  %-24s  %-10s  %s\n", "-----", "-------", "----", "--------------")
			for _, e := range entries {
				fmt.Fprintf(out, "%-8d  %-24s  %-10s  %s\n", e.Cycle, e.Command, e.Kind, e.InterruptedBy)
			}
			if pg := model.NewPagination(total, opts); pg.HasMore {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(entries), total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Only entries from this session")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only entries of this kind (INITIALIZE, EXECUTE, FINISH, INTERRUPT)")
	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum entries to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Entries to skip")
	return cmd
}

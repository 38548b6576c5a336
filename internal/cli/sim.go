package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/robocmd/internal/config"
	"github.com/me/robocmd/internal/journal"
	"github.com/me/robocmd/internal/loop"
	"github.com/me/robocmd/internal/robot"
	"github.com/me/robocmd/internal/scenario"
	"github.com/me/robocmd/internal/scheduler"
	"github.com/me/robocmd/internal/server"
	"github.com/me/robocmd/internal/telemetry"
	"github.com/me/robocmd/pkg/command"
	"github.com/me/robocmd/pkg/model"
)

func newSimCmd() *cobra.Command {
	var cfg config.SimConfig

	cmd := &cobra.Command{
		Use:   "sim [scenario.yaml]",
		Short: "Run a scenario against simulated subsystems",
		Long: `Runs the scenario's timeline through a command scheduler. By default cycles
run back to back on a simulated clock; --realtime ticks at the scenario period
on the wall clock and serves the dashboard while it runs.

Flags override ROBOCMD_* environment variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadSimConfig()
			if err != nil {
				return err
			}
			merged := mergeSimFlags(cmd, env, cfg)
			if len(args) == 1 {
				merged.Scenario = args[0]
			}
			if merged.Scenario == "" {
				return errors.New("no scenario: pass a file or set --scenario")
			}

			res, err := runSim(cmd.Context(), merged)
			if res != nil {
				printSimResult(cmd.OutOrStdout(), res)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Scenario, "scenario", "", "Scenario YAML path")
	f.IntVar(&cfg.Cycles, "cycles", 0, "Cycles to run (default: the scenario's cycles)")
	f.DurationVar(&cfg.Period, "period", 0, "Loop period (default: the scenario's period)")
	f.BoolVar(&cfg.Realtime, "realtime", false, "Tick on the wall clock instead of back to back")
	f.BoolVar(&cfg.HaltOnFault, "halt-on-fault", false, "Stop at the first command fault")
	f.IntVar(&cfg.MailboxSize, "mailbox", 64, "Dashboard request queue depth")
	f.StringVar(&cfg.JournalPath, "journal", "", "Record lifecycle events to this SQLite database")
	f.BoolVar(&cfg.RecordExecute, "record-execute", false, "Journal every execute call as well")
	f.StringVar(&cfg.Server.Addr, "addr", "", "Serve the dashboard on this address (e.g. :8080)")
	f.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", "", "Export cycle traces to this OTLP/HTTP endpoint")
	return cmd
}

// mergeSimFlags overlays explicitly set flags on the environment config.
func mergeSimFlags(cmd *cobra.Command, env, flags config.SimConfig) config.SimConfig {
	f := cmd.Flags()
	if f.Changed("scenario") {
		env.Scenario = flags.Scenario
	}
	if f.Changed("cycles") {
		env.Cycles = flags.Cycles
	}
	if f.Changed("period") {
		env.Period = flags.Period
	}
	if f.Changed("realtime") {
		env.Realtime = flags.Realtime
	}
	if f.Changed("halt-on-fault") {
		env.HaltOnFault = flags.HaltOnFault
	}
	if f.Changed("mailbox") {
		env.MailboxSize = flags.MailboxSize
	}
	if f.Changed("journal") {
		env.JournalPath = flags.JournalPath
	}
	if f.Changed("record-execute") {
		env.RecordExecute = flags.RecordExecute
	}
	if f.Changed("addr") {
		env.Server.Addr = flags.Server.Addr
	}
	if f.Changed("otlp-endpoint") {
		env.OTLPEndpoint = flags.OTLPEndpoint
	}
	return env
}

// simResult summarizes a finished simulation.
type simResult struct {
	Scenario string
	Faults   uint64
	Session  string
	Written  int
	Snapshot model.SchedulerSnapshot
}

func runSim(ctx context.Context, cfg config.SimConfig) (*simResult, error) {
	s, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	var buildOpts []scenario.BuildOption
	buildOpts = append(buildOpts, scenario.WithLogger(logger))
	if cfg.Realtime {
		buildOpts = append(buildOpts, scenario.WithClock(command.SystemClock{}))
	}
	plan, err := scenario.Build(s, buildOpts...)
	if err != nil {
		return nil, err
	}

	cycles := plan.Cycles()
	if cfg.Cycles > 0 {
		cycles = cfg.Cycles
	}
	if cycles <= 0 && !cfg.Realtime {
		return nil, errors.New("no cycle count: set cycles in the scenario or pass --cycles")
	}
	period := plan.Period()
	if cfg.Period > 0 {
		period = cfg.Period
	}

	shutdown, err := telemetry.Setup(ctx, "robocmd", cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	state := robot.NewState(false, logger)
	sched := scheduler.New(scheduler.WithLogger(logger), scheduler.WithDisabledSource(state.Disabled))
	defer sched.Close()

	timeline, err := plan.Install(sched, state)
	if err != nil {
		return nil, err
	}
	loopOpts := []loop.Option{loop.WithBeforeCycle(timeline)}

	var (
		store journal.Store
		rec   *journal.Recorder
	)
	if cfg.JournalPath != "" {
		st, err := journal.NewSQLiteStore(cfg.JournalPath, logger)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		store = st
		rec = journal.NewRecorder(st, logger, journal.WithExecuteEvents(cfg.RecordExecute))
		rec.Attach(sched)
		loopOpts = append(loopOpts, loop.WithAfterCycle(rec.AfterCycle))
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	if cfg.Realtime && cycles > 0 {
		loopOpts = append(loopOpts, loop.WithAfterCycle(func(_ context.Context, s *scheduler.CommandScheduler) error {
			if s.Cycle() >= uint64(cycles) {
				stop()
			}
			return nil
		}))
	}

	l := loop.NewLoop(sched, loop.Config{
		Period:      period,
		HaltOnFault: cfg.HaltOnFault,
		MailboxSize: cfg.MailboxSize,
	}, logger, loopOpts...)

	if cfg.Server.Addr != "" {
		var srvOpts []server.Option
		if store != nil {
			srvOpts = append(srvOpts, server.WithJournal(store))
		}
		closeServer, err := serveDashboard(cfg.Server, server.New(cfg.Server, l, state, logger, srvOpts...))
		if err != nil {
			return nil, err
		}
		defer closeServer()
	}

	logger.Info("simulation starting", "scenario", plan.Name(), "cycles", cycles, "period", period, "realtime", cfg.Realtime)
	var runErr error
	if cfg.Realtime {
		runErr = l.Start(runCtx)
		if errors.Is(runErr, context.Canceled) && ctx.Err() == nil {
			runErr = nil
		}
	} else {
		runErr = l.RunCycles(runCtx, cycles)
	}

	res := &simResult{
		Scenario: plan.Name(),
		Faults:   l.Faults(),
		Snapshot: l.Snapshot(),
	}
	if rec != nil {
		if err := rec.Flush(context.Background()); err != nil {
			runErr = errors.Join(runErr, err)
		}
		res.Session = rec.SessionID()
		res.Written = rec.Written()
	}
	logger.Info("simulation finished", "scenario", plan.Name(), "cycle", res.Snapshot.Cycle, "faults", res.Faults)
	return res, runErr
}

// serveDashboard starts the dashboard and returns a func that shuts it down.
func serveDashboard(cfg config.ServerConfig, srv *server.Server) (func(), error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("dashboard listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dashboard failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("dashboard shutdown", "error", err)
		}
		<-done
	}, nil
}

func printSimResult(w io.Writer, res *simResult) {
	fmt.Fprintf(w, "Scenario: %s\n", res.Scenario)
	fmt.Fprintf(w, "Faults:   %d\n", res.Faults)
	if res.Session != "" {
		fmt.Fprintf(w, "Journal:  %d entries in session %s\n", res.Written, res.Session)
	}
	printSnapshot(w, res.Snapshot)
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wildwatch-sim/internal/admin"
	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/metrics"
	"wildwatch-sim/internal/notify"
	"wildwatch-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simTUI        bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simEval       time.Duration
	simLogFile    string
	simAdminAddr  string
	simSeed       int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time wildlife simulator",
	Long:  "simulate moves collared animals, evaluates alert rules and streams telemetry, alerts and statistics to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if err := applyIntervals(cfg, cmd); err != nil {
			return err
		}

		log := slog.Default()
		if simTUI {
			// the alternate screen owns the terminal; keep logs out of it
			if log, err = fileLogger(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		collector := metrics.NewCollector()
		writer, err := newWriters(cfg, writerOptions{PrintOnly: simPrintOnly, TUI: simTUI, LogFile: simLogFile}, collector)
		if err != nil {
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Error("closing writers", "err", err)
			}
		}()

		session := sim.NewSession(cfg, sim.SessionOptions{
			Seed:     simSeed,
			Notifier: notifier(cfg, log),
		})
		writer.SetController(session)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim.Relay(ctx, session, writer)
		}()

		if simAdminAddr != "" {
			srv := admin.NewServer(session, collector)
			srv.OnListening = writer.SetAdminStatus
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "err", err)
				}
			}()
		}

		if err := session.Start(ctx); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		log.Info("simulation running", "entities", len(cfg.Entities), "zones", len(cfg.Zones))

		<-ctx.Done()
		session.Close()
		wg.Wait()
		log.Info("wildlife simulation stopped")
		return nil
	},
}

// loadConfig reads path, or returns the built-in scenario when path is empty.
func loadConfig(path, schema string) (*config.SimulationConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path, schema)
}

// applyIntervals layers flags over env vars over the config file.
func applyIntervals(cfg *config.SimulationConfig, cmd *cobra.Command) error {
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		cfg.Simulation.TickInterval = d
	}
	if v := os.Getenv("EVAL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid EVAL_INTERVAL: %w", err)
		}
		cfg.Monitoring.EvaluationInterval = d
	}
	if cmd != nil && cmd.Flags().Changed("tick") {
		cfg.Simulation.TickInterval = simTick
	}
	if cmd != nil && cmd.Flags().Changed("eval") {
		cfg.Monitoring.EvaluationInterval = simEval
	}
	if cfg.Simulation.TickInterval <= 0 || cfg.Monitoring.EvaluationInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	return nil
}

func notifier(cfg *config.SimulationConfig, log *slog.Logger) alert.Notifier {
	var bell alert.Notifier
	if cfg.Monitoring.Bell {
		if b := notify.NewBell(); b != nil {
			bell = b
		}
	}
	return notify.NewMulti(bell, notify.Log{Logger: log})
}

func fileLogger() (*slog.Logger, error) {
	path := filepath.Join(os.TempDir(), "wildwatch-sim.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.NewWithOptions(logging.Options{
		Level: logging.ParseLevel(os.Getenv("LOG_LEVEL")),
		Out:   f,
	}), nil
}

func init() {
	f := simulateCmd.Flags()
	f.BoolVar(&simPrintOnly, "print-only", false, "Print to STDOUT only, ignoring network sink variables")
	f.BoolVar(&simTUI, "tui", false, "Show the interactive terminal UI")
	f.StringVar(&simConfigPath, "config", "", "Path to simulation configuration YAML (built-in scenario when empty)")
	f.StringVar(&simSchemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	f.DurationVar(&simTick, "tick", 30*time.Second, "Telemetry tick interval (e.g. 500ms, 2s)")
	f.DurationVar(&simEval, "eval", time.Minute, "Alert rule evaluation interval")
	f.StringVar(&simLogFile, "log-file", "", "Path to export telemetry logs (JSONL); alerts and stats go to .alerts and .stats")
	f.StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin API listen address (empty disables)")
	f.Int64Var(&simSeed, "seed", 0, "Random seed (0 seeds from the clock)")
}

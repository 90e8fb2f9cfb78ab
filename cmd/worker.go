package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run beside one or more portal servers sharing a session store.`,
}

var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Start the idle session janitor",
	Long:  `Periodically delete sessions not written within session.idle_ttl`,
	Run: func(cmd *cobra.Command, args []string) {
		startSessionWorker()
	},
}

var (
	sweepOnce     bool
	sweepSchedule string
)

func startSessionWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.L()

	sessions, err := openSessionBackend(config.Session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session storage: %v\n", err)
		os.Exit(1)
	}
	defer sessions.Close()

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeSessionExpired, func(ctx context.Context, event events.Event) error {
		lg.Debug("session expired", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	janitor := session.NewJanitor(sessions.Sweeper, nil, bus, config.Session.IdleTTL, lg)

	if sweepOnce {
		swept, err := janitor.Sweep(context.Background())
		if err != nil {
			lg.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		lg.Info("sweep complete", "swept", len(swept))
		return
	}

	schedule := getStringFlag(sweepSchedule, config.Session.SweepSchedule)
	lg.Info("starting session worker",
		"driver", config.Session.Driver,
		"schedule", schedule,
		"idle_ttl", config.Session.IdleTTL)

	if err := janitor.Start(schedule); err != nil {
		lg.Error("failed to start janitor", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("session worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down session worker", "signal", sig)
	janitor.Stop()
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	sessionWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single sweep and exit")
	sessionWorkerCmd.Flags().StringVar(&sweepSchedule, "schedule", "", "Cron schedule (overrides session.sweep_schedule)")

	workerCmd.AddCommand(sessionWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}

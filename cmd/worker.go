package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/access-control/internal/auth"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that maintain the access-control datastore.`,
}

var tokenWorkerCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Sweep expired access tokens on a schedule",
	Long:  `Periodically delete access tokens whose expiry has passed. The schedule comes from cleanup.schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startTokenWorker()
	},
}

var (
	sweepOnce     bool
	sweepSchedule string
)

func startTokenWorker() error {
	deps, err := initializeDependencies()
	if err != nil {
		return err
	}
	defer deps.DB.Close()

	svc, err := newServices(deps)
	if err != nil {
		return err
	}

	schedule := deps.Config.Cleanup.Schedule
	if sweepSchedule != "" {
		schedule = sweepSchedule
	}

	sweeper, err := auth.NewSweeper(svc.Auth, schedule, deps.Logger)
	if err != nil {
		return err
	}

	if sweepOnce {
		n, err := sweeper.RunOnce(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d expired tokens\n", n)
		return nil
	}

	deps.Logger.Info("starting token worker", "schedule", schedule)
	sweeper.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	deps.Logger.Info("token worker is running. Press Ctrl+C to stop.")
	sig := <-sigChan
	deps.Logger.Info("received signal, shutting down token worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sweeper.Stop(ctx)

	deps.Logger.Info("token worker shutdown complete")
	return nil
}

func init() {
	tokenWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single sweep and exit")
	tokenWorkerCmd.Flags().StringVar(&sweepSchedule, "schedule", "", "cron schedule (overrides config)")

	workerCmd.AddCommand(tokenWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}

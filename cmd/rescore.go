package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/kayz/promptstudio/internal/cron"
	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	rescoreSchedule    string
	rescoreDaemon      bool
	rescoreWorkers     int
	rescoreMetricsFile string
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Refresh the stored score of every prompt",
	Long: `Refresh the stored score of every prompt. Scores go stale when CAPs change,
so this can also run on a cron schedule until interrupted:
  promptstudio rescore --schedule "*/15 * * * *" --metrics-file /var/lib/node_exporter/promptstudio.prom
  promptstudio rescore --daemon   # uses rescore.schedule from the config`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workers := cfg.Rescore.Workers
		if cmd.Flags().Changed("workers") {
			workers = rescoreWorkers
		}
		metricsFile := cfg.Rescore.MetricsFile
		if rescoreMetricsFile != "" {
			metricsFile = rescoreMetricsFile
		}
		schedule := rescoreSchedule
		if schedule == "" && rescoreDaemon {
			schedule = cfg.Rescore.Schedule
			if schedule == "" {
				return fmt.Errorf("--daemon needs rescore.schedule in the config or --schedule")
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		recorder := metrics.NewRecorder()
		rescorer := cron.NewRescorer(store, workers, recorder)
		out := cmd.OutOrStdout()

		if schedule == "" {
			res, err := rescorer.RunOnce(cmd.Context())
			writeMetrics(recorder, metricsFile)
			if err != nil {
				return err
			}
			writeRescoreResult(out, res)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		scheduler := cron.NewScheduler(rescorer)
		scheduler.OnRun = func(res *cron.Result, err error) {
			writeMetrics(recorder, metricsFile)
			if err == nil {
				writeRescoreResult(out, res)
			}
		}
		if err := scheduler.Start(schedule); err != nil {
			return err
		}
		<-ctx.Done()
		scheduler.Stop()
		return nil
	},
}

func writeMetrics(recorder *metrics.Recorder, path string) {
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		logger.Warn("write metrics %s failed: %v", path, err)
	}
}

func writeRescoreResult(w io.Writer, res *cron.Result) {
	fmt.Fprintf(w, "Rescored %d prompts, %d changed\n", res.Scored, res.Changed)
	for _, id := range res.LowContinuity {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  low continuity: %s", id)))
	}
}

func init() {
	rescoreCmd.Flags().StringVar(&rescoreSchedule, "schedule", "", "Cron expression (5 or 6 fields, or @every/@hourly); run until interrupted")
	rescoreCmd.Flags().BoolVar(&rescoreDaemon, "daemon", false, "Run on rescore.schedule from the config")
	rescoreCmd.Flags().IntVar(&rescoreWorkers, "workers", 4, "Parallel scoring workers")
	rescoreCmd.Flags().StringVar(&rescoreMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after each run")
	rootCmd.AddCommand(rescoreCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zvitops/updmon/internal/classify"
	"github.com/zvitops/updmon/internal/log"
	"github.com/zvitops/updmon/internal/service"
	"github.com/zvitops/updmon/internal/store"
)

var (
	flagDir        string
	flagEncoding   string
	flagCheckpoint string
	flagLimit      int
)

func init() {
	checkCmd.Flags().StringVar(&flagDir, "dir", "", "logs directory (overrides config)")
	checkCmd.Flags().StringVar(&flagEncoding, "encoding", "", "log files encoding (overrides config)")
	checkCmd.Flags().StringVar(&flagCheckpoint, "checkpoint", "", "skip triggers at or before this time (RFC3339 or dd.mm.yyyy HH:MM:SS)")

	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "number of runs to show")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "check classifies the most recent update run and prints the outcome",
	RunE:  doCheck,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run executes the configured service: one tick or a schedule, with state and notifications",
	RunE:  doRun,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "history shows the recorded classification runs",
	RunE:  doHistory,
}

func doCheck(cmd *cobra.Command, args []string) error {
	attrs := slog.Group("updmon",
		slog.String("cmd", "check"),
		slog.Int("pid", os.Getpid()),
	)
	ctx := log.ContextAttrs(cmd.Context(), attrs)

	dir := flagDir
	if dir == "" {
		dir = config.Logs.Dir
	}
	encodingName := flagEncoding
	if encodingName == "" {
		encodingName = config.Logs.EncodingName()
	}

	checkpoint, err := parseCheckpoint(flagCheckpoint)
	if err != nil {
		return err
	}

	classifier, err := classify.New(dir, encodingName, checkpoint)
	if err != nil {
		return err
	}

	outcome := classifier.Classify(ctx)
	exitCode = outcome.Status.ExitCode()

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(outcome)
}

func doRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attrs := slog.Group("updmon",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	supervisor, err := service.NewSupervisor(ctx, config)
	if err != nil {
		return err
	}

	if supervisor.Oneshot() {
		defer supervisor.Close(ctx)
		outcome, err := supervisor.Tick(ctx)
		if err != nil {
			return err
		}
		exitCode = outcome.Status.ExitCode()
		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		return out.Encode(outcome)
	}

	return supervisor.Do(ctx)
}

func doHistory(cmd *cobra.Command, args []string) error {
	if config.Service.State == nil || *config.Service.State == "" {
		return fmt.Errorf("service.state is not configured, no history is recorded")
	}

	db, err := store.InitDB(cmd.Context(), *config.Service.State)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	runs, err := store.LastRuns(cmd.Context(), db, flagLimit)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Println(run.String())
	}
	return nil
}

// parseCheckpoint accepts RFC3339 and the planner's own timestamp
// format; an empty value means no checkpoint.
func parseCheckpoint(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("02.01.2006 15:04:05", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("can't parse checkpoint %q", raw)
}

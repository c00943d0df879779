package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gocron "github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// ParseCron validates a 5-field cron expression or an @-macro
// ("@hourly", "@every 15m") before it is handed to the scheduler,
// so a config typo fails at startup and not at the first tick.
func ParseCron(expr string) error {
	e := strings.TrimSpace(expr)
	if e == "" {
		return fmt.Errorf("empty cron expression")
	}

	// ParseStandard handles the @-macros and @every forms
	if strings.HasPrefix(e, "@") {
		_, err := cron.ParseStandard(e)
		return err
	}

	parser5 := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser5.Parse(e)
	return err
}

func newScheduler(ctx context.Context, schedule string, tickFunc func()) (gocron.Scheduler, error) {
	if err := ParseCron(schedule); err != nil {
		return nil, fmt.Errorf("parsing service.schedule: %w", err)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("initializing gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(tickFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing gocron job: %w", err)
	}
	slog.DebugContext(ctx, "scheduler ready", "schedule", schedule)
	return s, nil
}

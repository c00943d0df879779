// Package service runs the classifier as an unattended job: one-shot
// or on a schedule, with checkpoint persistence and webhook
// notifications around the core.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocron "github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zvitops/updmon/internal/classify"
	"github.com/zvitops/updmon/internal/model"
	"github.com/zvitops/updmon/internal/notify"
	"github.com/zvitops/updmon/internal/store"
)

type Supervisor struct {
	cfg       model.Config
	db        *sql.DB
	webhooks  []*notify.Webhook
	onSuccess bool
	scheduler gocron.Scheduler
	start     chan struct{}
	oneshot   bool
}

// NewSupervisor validates the whole configuration tier up front:
// logs dir and encoding, state db, webhook URLs and the schedule all
// fail here, before the first tick.
func NewSupervisor(ctx context.Context, cfg model.Config) (*Supervisor, error) {
	// surfaces empty dir / unknown encoding immediately
	if _, err := classify.New(cfg.Logs.Dir, cfg.Logs.EncodingName(), time.Time{}); err != nil {
		return nil, err
	}

	var supervisor = &Supervisor{
		cfg:       cfg,
		onSuccess: true,
		oneshot:   cfg.Service.Mode == model.ServiceModeManual,
		start:     make(chan struct{}, 1),
	}

	if cfg.Service.State != nil && *cfg.Service.State != "" {
		db, err := store.InitDB(ctx, *cfg.Service.State)
		if err != nil {
			return nil, fmt.Errorf("initializing state db: %w", err)
		}
		supervisor.db = db
	}

	if n := cfg.Service.Notify; n != nil && (n.Enabled == nil || *n.Enabled) {
		for _, rawURL := range n.URLs {
			w, err := notify.NewWebhook(rawURL)
			if err != nil {
				supervisor.close(ctx)
				return nil, fmt.Errorf("initializing webhook: %w", err)
			}
			supervisor.webhooks = append(supervisor.webhooks, w)
		}
		if n.OnSuccess != nil {
			supervisor.onSuccess = *n.OnSuccess
		}
	}

	if cfg.Service.Mode == model.ServiceModeTimer {
		schedule := ""
		if cfg.Service.Schedule != nil {
			schedule = *cfg.Service.Schedule
		}
		scheduler, err := newScheduler(ctx, schedule, func() { supervisor.Start() })
		if err != nil {
			supervisor.close(ctx)
			return nil, fmt.Errorf("timer mode failed: %w", err)
		}
		supervisor.scheduler = scheduler
	}

	return supervisor, nil
}

// Start hints the supervisor to run one classification. Never blocks:
// a tick already pending is enough.
func (s *Supervisor) Start() {
	select {
	case s.start <- struct{}{}:
	default:
	}
}

// Do runs the supervisor loop.
//
// Modes:
//   - Oneshot (manual): a single tick runs on entry and its error is returned.
//   - Timer: ticks come from the scheduler; errors are only logged and
//     the loop runs until ctx is cancelled.
func (s *Supervisor) Do(ctx context.Context) error {
	slog.DebugContext(ctx, "starting the supervisor")
	defer s.close(ctx)

	if s.oneshot {
		_, err := s.Tick(ctx)
		return err
	}

	if s.scheduler != nil {
		s.scheduler.Start()
		defer func() {
			err := s.scheduler.Shutdown()
			if err != nil {
				slog.ErrorContext(ctx, "shutting down gocron has failed", "error", err)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.start:
			outcome, err := s.Tick(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "tick failed", "error", err)
				continue
			}
			slog.InfoContext(ctx, "tick done",
				"status", outcome.Status.String(),
				"error_id", outcome.ErrorID.String(),
				"reason", outcome.Reason)
		}
	}
}

// Tick runs one classification round: load the checkpoint, classify,
// record the run and deliver notifications. The returned error covers
// the surrounding plumbing only; domain conditions live inside the
// outcome.
func (s *Supervisor) Tick(ctx context.Context) (model.Outcome, error) {
	checkpoint, err := s.loadCheckpoint(ctx)
	if err != nil {
		return model.Outcome{}, err
	}

	classifier, err := classify.New(s.cfg.Logs.Dir, s.cfg.Logs.EncodingName(), checkpoint)
	if err != nil {
		return model.Outcome{}, err
	}
	outcome := classifier.Classify(ctx)

	var runID string
	if s.db != nil && outcome.Status != model.StatusNoUpdate {
		runID, err = store.RecordRun(ctx, s.db, outcome)
		if err != nil {
			slog.ErrorContext(ctx, "recording run failed", "error", err)
		}
	}

	if s.shouldNotify(outcome.Status) {
		if err := s.notifyAll(ctx, runID, outcome); err != nil {
			slog.ErrorContext(ctx, "notification failed", "error", err)
		}
	}

	return outcome, nil
}

func (s *Supervisor) loadCheckpoint(ctx context.Context) (time.Time, error) {
	if s.db == nil {
		return time.Time{}, nil
	}
	checkpoint, err := store.Checkpoint(ctx, s.db)
	if errors.Is(err, model.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return checkpoint, nil
}

func (s *Supervisor) shouldNotify(status model.Status) bool {
	if len(s.webhooks) == 0 {
		return false
	}
	switch status {
	case model.StatusNoUpdate:
		return false
	case model.StatusSuccess:
		return s.onSuccess
	default:
		return true
	}
}

func (s *Supervisor) notifyAll(ctx context.Context, runID string, outcome model.Outcome) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range s.webhooks {
		g.Go(func() error {
			return w.Notify(ctx, runID, outcome)
		})
	}
	return g.Wait()
}

// Oneshot reports whether the supervisor runs a single tick.
func (s *Supervisor) Oneshot() bool {
	return s.oneshot
}

// Close releases the state db. Safe to call more than once; Do calls
// it on exit.
func (s *Supervisor) Close(ctx context.Context) {
	s.close(ctx)
}

func (s *Supervisor) close(ctx context.Context) {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		slog.ErrorContext(ctx, "closing state db failed", "error", err)
	}
	s.db = nil
}

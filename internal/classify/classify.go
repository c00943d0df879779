// Package classify reduces the two EZvit logs to a single outcome
// record: did the most recent scheduled update succeed, fail, or
// never happen.
package classify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/encoding"

	"github.com/zvitops/updmon/internal/enc"
	"github.com/zvitops/updmon/internal/logtime"
	"github.com/zvitops/updmon/internal/model"
	"github.com/zvitops/updmon/internal/oplog"
	"github.com/zvitops/updmon/internal/planner"
	"github.com/zvitops/updmon/internal/updver"
)

// Classifier evaluates one log directory. It holds no mutable state;
// every Classify call reads the filesystem afresh and produces one
// fresh record, so concurrent use is safe.
type Classifier struct {
	dir        string
	encoding   encoding.Encoding
	checkpoint time.Time // zero means no checkpoint
}

// New validates the configuration tier up front: an empty directory
// or an unknown encoding name is a caller error and fails here,
// before any file I/O. encodingName empty selects the default
// windows-1251 codepage.
func New(dir, encodingName string, checkpoint time.Time) (*Classifier, error) {
	if dir == "" {
		return nil, errors.New("logs directory is mandatory")
	}
	if encodingName == "" {
		encodingName = model.DefaultEncoding
	}
	e, err := enc.Resolve(encodingName)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		dir:        dir,
		encoding:   e,
		checkpoint: checkpoint,
	}, nil
}

// Classify runs the one-shot state machine. Domain conditions are
// never returned as errors; they terminate in the outcome record.
func (c *Classifier) Classify(ctx context.Context) model.Outcome {
	if info, err := os.Stat(c.dir); err != nil || !info.IsDir() {
		slog.DebugContext(ctx, "logs directory missing", "dir", c.dir)
		return model.NewOutcome(model.StatusError, model.ErrIDLogsDirectoryMissing,
			fmt.Sprintf("logs directory %s does not exist", c.dir))
	}

	plannerPath := filepath.Join(c.dir, model.PlannerLogName)
	plannerText, err := enc.ReadFile(plannerPath, c.encoding)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewOutcome(model.StatusError, model.ErrIDPlannerLogMissing,
				fmt.Sprintf("planner log %s does not exist", plannerPath))
		}
		return model.NewOutcome(model.StatusError, model.ErrIDEncodingError,
			fmt.Sprintf("reading planner log: %s", err))
	}

	trigger := planner.LastTrigger(plannerText)
	if !trigger.Found {
		// no trigger at all: version and timing fields stay empty
		return model.NewOutcome(model.StatusNoUpdate, model.ErrIDNoUpdate,
			"planner log carries no update trigger")
	}

	versions := updver.Parse(trigger.RawToken)
	outcome := model.Outcome{
		FromVersion:   versions.FromVersion,
		ToVersion:     versions.ToVersion,
		TargetVersion: versions.ToVersion,
		TriggerTime:   trigger.Time,
	}

	if !c.checkpoint.IsZero() && !trigger.Time.After(c.checkpoint) {
		// equal-or-older trigger was already reported
		return terminal(outcome, model.StatusNoUpdate, model.ErrIDNoUpdate,
			fmt.Sprintf("trigger at %s is not newer than checkpoint %s",
				trigger.Time.Format(time.DateTime), c.checkpoint.Format(time.DateTime)))
	}

	// the per-day update log is named by the trigger date, not by
	// wall-clock now
	updatePath := filepath.Join(c.dir, updateLogName(trigger.Time))
	outcome.UpdateLogPath = updatePath

	updateText, err := enc.ReadFile(updatePath, c.encoding)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return terminal(outcome, model.StatusFailed, model.ErrIDUpdateLogMissing,
				fmt.Sprintf("update log %s does not exist", updatePath))
		}
		return terminal(outcome, model.StatusError, model.ErrIDEncodingError,
			fmt.Sprintf("reading update log: %s", err))
	}

	block := oplog.LastBlock(updateText)
	outcome.OperationFound = block.Found
	if !block.Found {
		return terminal(outcome, model.StatusFailed, model.ErrIDUpdateValidationFailed,
			"no complete update operation found in update log")
	}

	if first, last, ok := logtime.Range(logtime.UpdateLog, block.Lines()); ok {
		outcome.UpdateStartTime = first
		outcome.UpdateEndTime = last
		seconds := int64(last.Sub(first) / time.Second)
		outcome.DurationSeconds = &seconds
	}

	markers := oplog.CheckMarkers(block.Text, outcome.TargetVersion)
	outcome.MarkerVersionConfirm = markers.VersionConfirm
	outcome.MarkerCompletionMarker = markers.CompletionMarker

	if !markers.VersionConfirm || !markers.CompletionMarker {
		return terminal(outcome, model.StatusFailed, model.ErrIDUpdateValidationFailed,
			missingMarkers(markers))
	}

	slog.DebugContext(ctx, "update confirmed",
		"target", outcome.TargetVersion, "trigger", trigger.Time)
	return terminal(outcome, model.StatusSuccess, model.ErrIDSuccess,
		fmt.Sprintf("update to %s confirmed", outcome.TargetVersion))
}

// Checkpoint returns the checkpoint this classifier compares against.
func (c *Classifier) Checkpoint() time.Time {
	return c.checkpoint
}

func terminal(outcome model.Outcome, status model.Status, errorID model.ErrorID, reason string) model.Outcome {
	outcome.Status = status
	outcome.ErrorID = errorID
	outcome.Success = status == model.StatusSuccess
	outcome.Reason = reason
	return outcome
}

func updateLogName(triggerTime time.Time) string {
	return "update_" + triggerTime.Format(time.DateOnly) + ".log"
}

func missingMarkers(m oplog.Markers) string {
	switch {
	case !m.VersionConfirm && !m.CompletionMarker:
		return "version confirmation and completion markers missing"
	case !m.VersionConfirm:
		return "version confirmation marker missing"
	default:
		return "completion marker missing"
	}
}

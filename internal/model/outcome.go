package model

import (
	"time"
)

// Status is the terminal state of a single classification run.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusNoUpdate
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusNoUpdate:
		return "no_update"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ExitCode maps a status to the process exit code contract used by
// the monitoring jobs: success and no-update are 0, operational
// errors are 1 and a failed update is 2.
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess, StatusNoUpdate:
		return 0
	case StatusError:
		return 1
	case StatusFailed:
		return 2
	default:
		return 1
	}
}

// ErrorID identifies the concrete condition behind a status. The
// numeric values are part of the contract with downstream formatters
// and must not be reordered.
type ErrorID int

const (
	ErrIDSuccess ErrorID = iota
	ErrIDNoUpdate
	ErrIDPlannerLogMissing
	ErrIDLogsDirectoryMissing
	ErrIDUpdateLogMissing
	ErrIDEncodingError
	ErrIDUpdateValidationFailed
)

func (e ErrorID) String() string {
	switch e {
	case ErrIDSuccess:
		return "Success"
	case ErrIDNoUpdate:
		return "NoUpdate"
	case ErrIDPlannerLogMissing:
		return "PlannerLogMissing"
	case ErrIDLogsDirectoryMissing:
		return "LogsDirectoryMissing"
	case ErrIDUpdateLogMissing:
		return "UpdateLogMissing"
	case ErrIDEncodingError:
		return "EncodingError"
	case ErrIDUpdateValidationFailed:
		return "UpdateValidationFailed"
	default:
		return "Unknown"
	}
}

// Outcome is the sole result of one classifier call. It is built once
// and never mutated; every call produces a fresh record.
type Outcome struct {
	Status  Status  `json:"status"`
	ErrorID ErrorID `json:"error_id"`
	Success bool    `json:"success"`

	FromVersion   string `json:"from_version,omitempty"`
	ToVersion     string `json:"to_version,omitempty"`
	TargetVersion string `json:"target_version,omitempty"`

	TriggerTime     time.Time `json:"trigger_time,omitzero"`
	UpdateStartTime time.Time `json:"update_start_time,omitzero"`
	UpdateEndTime   time.Time `json:"update_end_time,omitzero"`
	// DurationSeconds is set only when both update timestamps were
	// found. Truncated to whole seconds.
	DurationSeconds *int64 `json:"update_duration_seconds,omitempty"`

	MarkerVersionConfirm   bool `json:"marker_version_confirm"`
	MarkerCompletionMarker bool `json:"marker_completion_marker"`
	OperationFound         bool `json:"operation_found"`

	UpdateLogPath string `json:"update_log_path,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// NewOutcome builds the skeleton of an outcome keeping the
// success == (status == StatusSuccess) invariant.
func NewOutcome(status Status, errorID ErrorID, reason string) Outcome {
	return Outcome{
		Status:  status,
		ErrorID: errorID,
		Success: status == StatusSuccess,
		Reason:  reason,
	}
}

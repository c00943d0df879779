// Package notify turns an outcome record into a short operator
// message and delivers it to a webhook.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/zvitops/updmon/internal/model"
)

// Severity is the notification level downstream channels map to
// their own priorities.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityFor maps the outcome status: a failed update warrants a
// warning, an operational error an error, everything else is
// informational.
func SeverityFor(status model.Status) Severity {
	switch status {
	case model.StatusFailed:
		return SeverityWarning
	case model.StatusError:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Message renders the human-readable notification text for one
// outcome.
func Message(o model.Outcome) string {
	var b strings.Builder

	switch o.Status {
	case model.StatusSuccess:
		fmt.Fprintf(&b, "EZvit update to %s succeeded", o.TargetVersion)
	case model.StatusFailed:
		if o.TargetVersion != "" {
			fmt.Fprintf(&b, "EZvit update to %s FAILED", o.TargetVersion)
		} else {
			b.WriteString("EZvit update FAILED")
		}
	case model.StatusNoUpdate:
		b.WriteString("EZvit: no new update")
	case model.StatusError:
		b.WriteString("EZvit update check ERROR")
	}
	fmt.Fprintf(&b, " [%s]", o.ErrorID)

	if o.FromVersion != "" {
		fmt.Fprintf(&b, "\nversions: %s -> %s", o.FromVersion, o.ToVersion)
	}
	if !o.TriggerTime.IsZero() {
		fmt.Fprintf(&b, "\ntriggered: %s", o.TriggerTime.Format(time.DateTime))
	}
	if o.DurationSeconds != nil {
		fmt.Fprintf(&b, "\nduration: %ds", *o.DurationSeconds)
	}
	if o.Reason != "" {
		fmt.Fprintf(&b, "\nreason: %s", o.Reason)
	}
	return b.String()
}

// Package planner scans the scheduler log (Planner.log) for the line
// announcing that an update was triggered.
package planner

import (
	"regexp"
	"strings"
	"time"

	"github.com/zvitops/updmon/internal/logtime"
)

// TriggerPhrase announces a scheduled update; the version token
// follows it on the same line.
const TriggerPhrase = "Заплановано оновлення:"

var reTrigger = regexp.MustCompile(regexp.QuoteMeta(TriggerPhrase) + `\s*(\S+)`)

// Trigger is the last update trigger found in the planner log.
type Trigger struct {
	Found    bool
	Time     time.Time
	RawToken string
}

// LastTrigger scans all lines and keeps the last one carrying both
// the trigger phrase with a version token and a valid planner-format
// timestamp. Multiple triggers across the history collapse to the
// most recent, earlier ones were already reported.
func LastTrigger(text string) Trigger {
	var trigger Trigger
	for _, line := range strings.Split(text, "\n") {
		m := reTrigger.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, ok := logtime.Parse(logtime.Planner, line)
		if !ok {
			continue
		}
		trigger = Trigger{
			Found:    true,
			Time:     ts,
			RawToken: m[1],
		}
	}
	return trigger
}

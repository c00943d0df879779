// Package logtime extracts timestamps from EZvit log lines. The two
// logs use different formats: Planner.log carries a 4-digit year,
// the per-day update logs a 2-digit year with milliseconds. The
// format is always selected by the caller, never guessed from the
// line content.
package logtime

import (
	"regexp"
	"time"
)

// Format selects which of the two log timestamp layouts to look for.
type Format int

const (
	// Planner matches "23.10.2025 10:30:15".
	Planner Format = iota
	// UpdateLog matches "23.10.25 10:30:15.123"; the millisecond
	// part is discarded.
	UpdateLog
)

var (
	rePlanner   = regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2})\b`)
	reUpdateLog = regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{2} \d{2}:\d{2}:\d{2})\.\d{3}\b`)
)

const (
	layoutPlanner   = "02.01.2006 15:04:05"
	layoutUpdateLog = "02.01.06 15:04:05"
)

// Parse finds the first timestamp of the given format inside line.
// A line with no valid timestamp yields ok=false; callers aggregate
// across the lines of a block to find the first/last occurrence.
func Parse(format Format, line string) (time.Time, bool) {
	var re *regexp.Regexp
	var layout string
	switch format {
	case Planner:
		re, layout = rePlanner, layoutPlanner
	case UpdateLog:
		re, layout = reUpdateLog, layoutUpdateLog
	default:
		return time.Time{}, false
	}

	m := re.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	if format == UpdateLog && t.Year() < 2000 {
		// time.Parse maps 2-digit years 69..99 into 19xx; the
		// update log always means the current century.
		t = t.AddDate(100, 0, 0)
	}
	return t, true
}

// Range scans every line of text and returns the first and last
// parseable timestamps of the given format. ok is false when no line
// carried one.
func Range(format Format, lines []string) (first, last time.Time, ok bool) {
	for _, line := range lines {
		t, found := Parse(format, line)
		if !found {
			continue
		}
		if !ok || t.Before(first) {
			first = t
		}
		if !ok || t.After(last) {
			last = t
		}
		ok = true
	}
	return first, last, ok
}

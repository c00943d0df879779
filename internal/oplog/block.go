// Package oplog isolates the most recent update attempt inside an
// update log and checks the two markers that prove it finished. All
// functions are pure over the decoded log text; offsets are byte
// offsets into that text.
package oplog

import (
	"strings"
)

const (
	// StartMarker opens one update attempt.
	StartMarker = "Початок оновлення програми"
	// CompletionMarker closes it. The embedded quotes around the
	// operation name are part of the literal and must match exactly.
	CompletionMarker = `Операцію "Оновлення програми" завершено`
)

// Block is the text span of the last update attempt.
type Block struct {
	Found       bool
	Text        string
	StartOffset int
	EndOffset   int
}

// LastBlock locates the last attempt with a single backward pass:
// last completion marker first, then the last start marker preceding
// it. Earlier attempts in the file are ignored, only the most recent
// run is operationally relevant.
//
// When a completion marker exists without a preceding start marker
// the block is not Found, but EndOffset still points past the
// completion marker. Diagnostic only; no further meaning is attached
// to it.
func LastBlock(text string) Block {
	end := strings.LastIndex(text, CompletionMarker)
	if end < 0 {
		return Block{StartOffset: -1, EndOffset: -1}
	}
	endOffset := end + len(CompletionMarker)

	start := strings.LastIndex(text[:end], StartMarker)
	if start < 0 {
		return Block{StartOffset: -1, EndOffset: endOffset}
	}

	return Block{
		Found:       true,
		Text:        text[start:endOffset],
		StartOffset: start,
		EndOffset:   endOffset,
	}
}

// Lines splits the block text for per-line timestamp aggregation.
func (b Block) Lines() []string {
	if !b.Found {
		return nil
	}
	return strings.Split(b.Text, "\n")
}

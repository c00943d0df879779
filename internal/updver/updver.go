// Package updver parses the version token carried by the planner's
// trigger line, e.g. "ezvit.11.02.185-11.02.186.upd".
package updver

import (
	"strings"
)

const (
	// Prefix and Ext frame the version range inside the update
	// package filename.
	Prefix = "ezvit."
	Ext    = ".upd"

	// PreviousVersion is the sentinel used when the token carries no
	// range, only a target version.
	PreviousVersion = "previous"
)

// Info is the parsed version range of one update package.
type Info struct {
	FromVersion string
	ToVersion   string
}

// Parse splits a raw token into a from/to version pair. The known
// product prefix and extension are stripped when present, the rest is
// split on the first hyphen. A token without a hyphen yields
// FromVersion = "previous" and the whole token as ToVersion.
//
// No numeric validation happens here: malformed fragments pass
// through as-is. The markers check downstream is what decides whether
// an update really happened.
func Parse(token string) Info {
	s := strings.TrimSpace(token)
	s = strings.TrimPrefix(s, Prefix)
	s = strings.TrimSuffix(s, Ext)
	s = strings.TrimSpace(s)

	from, to, found := strings.Cut(s, "-")
	if !found {
		return Info{
			FromVersion: PreviousVersion,
			ToVersion:   strings.TrimSpace(s),
		}
	}
	return Info{
		FromVersion: strings.TrimSpace(from),
		ToVersion:   strings.TrimSpace(to),
	}
}

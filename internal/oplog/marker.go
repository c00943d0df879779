package oplog

import (
	"regexp"
)

// versionConfirmPhrase precedes the exact installed version number in
// the update log.
const versionConfirmPhrase = "Встановлено версію"

// Markers holds the two independent marker checks. Either, both or
// neither may be true.
type Markers struct {
	VersionConfirm   bool
	CompletionMarker bool
}

var reCompletion = regexp.MustCompile(regexp.QuoteMeta(CompletionMarker))

// CheckMarkers tests the block text for the version-confirmation
// marker of the given target version and for the completion marker.
// The version number is matched with a trailing word boundary, so a
// target of "186" does not match "1860" or "2186".
func CheckMarkers(text, targetVersion string) Markers {
	return Markers{
		VersionConfirm:   versionConfirmed(text, targetVersion),
		CompletionMarker: reCompletion.MatchString(text),
	}
}

func versionConfirmed(text, targetVersion string) bool {
	if targetVersion == "" {
		return false
	}
	re, err := regexp.Compile(versionConfirmPhrase + `\s+` + regexp.QuoteMeta(targetVersion) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

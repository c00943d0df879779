package model

import (
	"errors"
)

// ErrNotFound reports an absent record, e.g. an empty run history
// that carries no checkpoint yet.
var ErrNotFound = errors.New("not found")

// Package enc resolves named text encodings and reads the EZvit log
// files through them. The application writes its logs in a single-byte
// Cyrillic codepage, so relying on the platform default is never
// correct here.
package enc

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Resolve maps an IANA encoding name ("windows-1251", "cp866",
// "koi8-u", "utf-8", ...) to its decoder. An empty name is rejected:
// defaulting is the caller's decision, not this package's.
func Resolve(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, fmt.Errorf("encoding name is empty")
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("resolving encoding %q: %w", name, err)
	}
	if e == nil {
		// ianaindex knows the name but carries no implementation
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return e, nil
}

// ReadFile reads the whole file and decodes it into UTF-8. The
// returned error wraps the os.ReadFile error unchanged, so callers
// can distinguish a missing file from a decode failure with
// errors.Is(err, fs.ErrNotExist).
func ReadFile(path string, e encoding.Encoding) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	decoded, err := e.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(decoded), nil
}

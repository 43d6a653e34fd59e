package bitmap

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these; the concrete types below
// carry the details.
var (
	// ErrIO matches every *IOError.
	ErrIO = errors.New("bitmap: i/o error")

	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("bitmap: unsupported format")
)

// IOError reports a failure to open or read the bitmap file.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("bitmap: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports ErrIO as a match so callers can classify without errors.As.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// FormatError reports a header that does not describe the supported layout.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bitmap: %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

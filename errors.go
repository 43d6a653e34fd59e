package tileview

import (
	"errors"

	"github.com/gogpu/tileview/bitmap"
	"github.com/gogpu/tileview/internal/gpu"
)

// Sentinel errors. Every error returned by this module that belongs to one
// of the categories below matches its sentinel with errors.Is.
var (
	ErrIO           = bitmap.ErrIO
	ErrFormat       = bitmap.ErrFormat
	ErrCompile      = gpu.ErrCompile
	ErrLink         = gpu.ErrLink
	ErrGPUInit      = gpu.ErrGPUInit
	ErrTooManyTiles = gpu.ErrTooManyTiles

	// ErrNotLoaded is returned by Run before an image has been loaded.
	ErrNotLoaded = errors.New("tileview: no image loaded")

	// ErrLoaded is returned when Load is called twice on one Engine.
	ErrLoaded = errors.New("tileview: image already loaded")

	// ErrReleased is returned by Run once the provider has released the
	// engine's GPU objects. The CPU tiles are gone by then, so the image
	// cannot be shown again by this Engine.
	ErrReleased = errors.New("tileview: tiles released by a previous run")

	// ErrClosed is returned when a closed Engine is used.
	ErrClosed = errors.New("tileview: engine closed")
)

// Concrete error types, re-exported for errors.As.
type (
	IOError      = bitmap.IOError
	FormatError  = bitmap.FormatError
	CompileError = gpu.CompileError
	LinkError    = gpu.LinkError
	GPUInitError = gpu.GPUInitError
)

// ErrorKind classifies an error for reporting.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindIO
	KindFormat
	KindCompile
	KindLink
	KindGPUInit
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindCompile:
		return "compile"
	case KindLink:
		return "link"
	case KindGPUInit:
		return "gpu-init"
	default:
		return "other"
	}
}

// Kind returns the category of err. A nil error is KindNone; errors
// outside the taxonomy are KindOther.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrCompile):
		return KindCompile
	case errors.Is(err, ErrLink):
		return KindLink
	case errors.Is(err, ErrGPUInit):
		return KindGPUInit
	default:
		return KindOther
	}
}

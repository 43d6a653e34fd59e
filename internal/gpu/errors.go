package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrCompile matches every *CompileError.
	ErrCompile = errors.New("gpu: shader compile failed")

	// ErrLink matches every *LinkError.
	ErrLink = errors.New("gpu: shader link failed")

	// ErrGPUInit matches every *GPUInitError.
	ErrGPUInit = errors.New("gpu: initialization failed")

	// ErrTooManyTiles is returned when the tiles do not fit one array
	// texture even with several tiles packed into each layer.
	ErrTooManyTiles = errors.New("gpu: tiles exceed texture array capacity")
)

// CompileError carries the compiler diagnostics for one shader stage.
type CompileError struct {
	Path        string
	Stage       Stage
	Diagnostics []string
	Err         error // underlying cause when the source could not be read
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: compile %s shader %s:\n%s", e.Stage, e.Path, strings.Join(e.Diagnostics, "\n"))
}

func (e *CompileError) Unwrap() error { return e.Err }

func (e *CompileError) Is(target error) bool { return target == ErrCompile }

// LinkError carries the diagnostics produced while combining stages.
type LinkError struct {
	Vertex, Fragment string
	Diagnostics      []string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("gpu: link %s + %s:\n%s", e.Vertex, e.Fragment, strings.Join(e.Diagnostics, "\n"))
}

func (e *LinkError) Is(target error) bool { return target == ErrLink }

// GPUInitError reports a failure to bring up the device, surface or
// render target.
type GPUInitError struct {
	Op  string
	Err error
}

func (e *GPUInitError) Error() string { return fmt.Sprintf("gpu: %s: %v", e.Op, e.Err) }

func (e *GPUInitError) Unwrap() error { return e.Err }

func (e *GPUInitError) Is(target error) bool { return target == ErrGPUInit }

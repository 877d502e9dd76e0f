package oclstat

import (
	"errors"
	"fmt"
	"time"
)

// Status is an OpenCL status code (cl_int) exactly as the real
// implementation returned it. The tracker never translates it.
type Status int32

const (
	// Success is CL_SUCCESS.
	Success Status = 0
	// InvalidValue is CL_INVALID_VALUE.
	InvalidValue Status = -30
	// InvalidContext is CL_INVALID_CONTEXT.
	InvalidContext Status = -34
	// InvalidMemObject is CL_INVALID_MEM_OBJECT.
	InvalidMemObject Status = -38
	// InvalidKernel is CL_INVALID_KERNEL.
	InvalidKernel Status = -48
	// OutOfResources is CL_OUT_OF_RESOURCES.
	OutOfResources Status = -5
	// OutOfHostMemory is CL_OUT_OF_HOST_MEMORY.
	OutOfHostMemory Status = -6
)

func (s Status) String() string {
	switch s {
	case Success:
		return "CL_SUCCESS"
	case InvalidValue:
		return "CL_INVALID_VALUE"
	case InvalidContext:
		return "CL_INVALID_CONTEXT"
	case InvalidMemObject:
		return "CL_INVALID_MEM_OBJECT"
	case InvalidKernel:
		return "CL_INVALID_KERNEL"
	case OutOfResources:
		return "CL_OUT_OF_RESOURCES"
	case OutOfHostMemory:
		return "CL_OUT_OF_HOST_MEMORY"
	}
	return fmt.Sprintf("cl_int(%d)", int32(s))
}

// Registry errors. These describe client protocol violations, not failures
// of the real implementation.
var (
	ErrUnknownHandle   = errors.New("unknown handle")
	ErrReleasedHandle  = errors.New("handle already released to zero")
	ErrDuplicateHandle = errors.New("handle already tracked")
)

// Configuration errors. These are fatal in the shim.
var (
	ErrLibraryNotFound = errors.New("opencl library not found")
	ErrSymbolNotFound  = errors.New("opencl entry point not found")
)

// Violation describes a retain, release or create that did not match
// the registry state.
type Violation struct {
	Category Category
	Op       Op
	Handle   Handle
	Err      error
	Stack    []Frame
	Time     time.Time
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return fmt.Sprintf("%s of %s %#x: %v", v.Op, v.Category, uintptr(v.Handle), v.Err)
}

// Unwrap returns the registry error.
func (v *Violation) Unwrap() error {
	return v.Err
}

// Severity selects what happens after a violation has been reported.
type Severity int

const (
	// SeverityLog reports the violation and lets the call proceed.
	SeverityLog Severity = iota
	// SeverityAbort reports the violation and then calls the fatal handler.
	SeverityAbort
)

func (s Severity) String() string {
	if s == SeverityAbort {
		return "abort"
	}
	return "log"
}

// UnmarshalText parses "log" or "abort".
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "log", "":
		*s = SeverityLog
	case "abort":
		*s = SeverityAbort
	default:
		return fmt.Errorf("invalid violation severity %q", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

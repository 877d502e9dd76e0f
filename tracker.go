package oclstat

import "time"

// Reference-count tracker for OpenCL objects.
//
// The shim in cmd/oclstat forwards every intercepted cl* call to a Tracker,
// which calls the real implementation through a Backend and mirrors the
// object's reference count in a Registry.
//
// Example:
//
//	t := oclstat.New(backend)
//	h, status := t.CreateBuffer(oclstat.BufferArgs{Context: ctx, Size: 1 << 20})
//	// ... client code forgets clReleaseMemObject ...
//	t.Report(oclstat.TriggerExplicit).WriteTo(os.Stderr)

// Category identifies the type of tracked OpenCL object.
type Category int

const (
	Context Category = iota
	CommandQueue
	MemObject
	Sampler
	Program
	Kernel

	numCategories
)

// Categories lists every tracked category in report order.
var Categories = [...]Category{Context, CommandQueue, MemObject, Sampler, Program, Kernel}

var categoryLabels = [numCategories]string{
	Context:      "contexts",
	CommandQueue: "command queues",
	MemObject:    "buffers/images",
	Sampler:      "samplers",
	Program:      "programs",
	Kernel:       "kernels",
}

var categoryKeys = [numCategories]string{
	Context:      "context",
	CommandQueue: "command_queue",
	MemObject:    "mem_object",
	Sampler:      "sampler",
	Program:      "program",
	Kernel:       "kernel",
}

// String returns the human label used in reports.
func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return "unknown"
	}
	return categoryLabels[c]
}

// Key returns the identifier used for metric labels.
func (c Category) Key() string {
	if c < 0 || c >= numCategories {
		return "unknown"
	}
	return categoryKeys[c]
}

// SizeBearing reports whether records of this category carry a byte size.
func (c Category) SizeBearing() bool {
	return c == MemObject
}

// Op is a reference-count operation.
type Op string

const (
	OpCreate  Op = "create"
	OpRetain  Op = "retain"
	OpRelease Op = "release"
)

// Handle is the opaque identity of an OpenCL object. It is only used as a
// lookup key and is never dereferenced.
type Handle uintptr

// RecordFlags qualify how a record's size is accounted.
type RecordFlags uint8

const (
	// FlagImage marks an image whose size is an estimate (a lower bound).
	FlagImage RecordFlags = 1 << iota
	// FlagAlias marks an object whose storage belongs to another object,
	// such as a sub-buffer. Its size is excluded from leaked bytes.
	FlagAlias
)

// Record describes a tracked object.
type Record struct {
	Handle  Handle
	Refs    int64
	Size    uint64
	Flags   RecordFlags
	Created time.Time
}

// Alive reports whether the object still holds references.
func (r Record) Alive() bool {
	return r.Refs > 0
}

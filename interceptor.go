package oclstat

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Tracker stands between the client and a Backend. Every method calls the
// backend with the client's arguments, mirrors the effect on the object's
// reference count in the registry, and returns the backend's results
// unchanged.
type Tracker struct {
	backend  Backend
	reg      *Registry
	log      *slog.Logger
	stacks   StackSnapshotter
	severity Severity
	fatal    func(error)
	now      func() time.Time

	outMu sync.Mutex
	out   io.Writer
}

var _ Backend = (*Tracker)(nil)

// Option configures a Tracker.
type Option func(*Tracker)

// WithRegistry makes the tracker record into r.
func WithRegistry(r *Registry) Option {
	return func(t *Tracker) { t.reg = r }
}

// WithLogger sets the logger. By default the package logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// WithStacks sets how stacks are captured on violations.
func WithStacks(s StackSnapshotter) Option {
	return func(t *Tracker) { t.stacks = s }
}

// WithSeverity sets the violation policy.
func WithSeverity(s Severity) Option {
	return func(t *Tracker) { t.severity = s }
}

// WithFatal replaces the handler called for abort-severity violations.
// The handler is expected not to return.
func WithFatal(fn func(error)) Option {
	return func(t *Tracker) { t.fatal = fn }
}

// WithOutput sets where violation stacks are printed.
func WithOutput(w io.Writer) Option {
	return func(t *Tracker) { t.out = w }
}

// WithClock sets the time source for violation timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithConfig applies the registry, severity and stack settings of cfg.
func WithConfig(cfg Config) Option {
	return func(t *Tracker) {
		t.reg = NewRegistry(RegistryOptions{
			Retention:        cfg.Retention,
			TombstoneLimit:   cfg.TombstoneLimit,
			RecentViolations: cfg.RecentViolations,
		})
		t.severity = cfg.OnViolation
		if cfg.StackTrace && cfg.StackDepth > 0 {
			t.stacks = GoStacks{Depth: cfg.StackDepth}
		} else {
			t.stacks = NoStacks{}
		}
	}
}

// New creates a tracker forwarding to b.
func New(b Backend, opts ...Option) *Tracker {
	t := &Tracker{
		backend: b,
		stacks:  NoStacks{},
		fatal:   Fatal,
		now:     time.Now,
		out:     os.Stderr,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.reg == nil {
		t.reg = NewRegistry(RegistryOptions{RecentViolations: 16, Now: t.now})
	}
	return t
}

// Fatal logs err and panics. A panic escaping an exported cgo function
// aborts the host process with the message and a stack trace.
func Fatal(err error) {
	Logger().Error("fatal", "err", err)
	panic(fmt.Sprintf("oclstat: %v", err))
}

// Registry returns the registry the tracker records into.
func (t *Tracker) Registry() *Registry {
	return t.reg
}

// Backend returns the backend the tracker forwards to.
func (t *Tracker) Backend() Backend {
	return t.backend
}

func (t *Tracker) logger() *slog.Logger {
	if t.log != nil {
		return t.log
	}
	return Logger()
}

func (t *Tracker) track(c Category, h Handle, size uint64, flags RecordFlags) {
	if h == 0 {
		return
	}
	if err := t.reg.Insert(c, h, size, flags); err != nil {
		t.violation(c, OpCreate, h, err)
	}
}

func (t *Tracker) retain(c Category, h Handle) {
	if err := t.reg.Retain(c, h); err != nil {
		t.violation(c, OpRetain, h, err)
	}
}

func (t *Tracker) release(c Category, h Handle) {
	zero, err := t.reg.Release(c, h)
	if err != nil {
		t.violation(c, OpRelease, h, err)
		return
	}
	if zero {
		t.logger().Debug("released", "category", c.Key(), "handle", fmt.Sprintf("%#x", uintptr(h)))
	}
}

func (t *Tracker) violation(c Category, op Op, h Handle, err error) {
	v := Violation{
		Category: c,
		Op:       op,
		Handle:   h,
		Err:      err,
		Stack:    t.stacks.Snapshot(2),
		Time:     t.now(),
	}
	t.reg.NoteViolation(v)
	t.logger().Warn("protocol violation",
		"op", string(op),
		"category", c.Key(),
		"handle", fmt.Sprintf("%#x", uintptr(h)),
		"err", err)

	if len(v.Stack) > 0 && t.out != nil {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "oclstat: %s\n", v.Error())
		WriteStack(&buf, v.Stack)
		t.outMu.Lock()
		t.out.Write(buf.Bytes())
		t.outMu.Unlock()
	}

	if t.severity == SeverityAbort {
		t.fatal(&v)
	}
}

// Report summarizes the registry.
func (t *Tracker) Report(trigger Trigger) Report {
	stats, recent := t.reg.Summary()
	return Report{
		Trigger:    trigger,
		Time:       t.now(),
		Retention:  t.reg.Retention(),
		Categories: stats,
		Recent:     recent,
	}
}

// Contexts

// CreateContext calls clCreateContext and tracks the new context.
func (t *Tracker) CreateContext(a ContextArgs) (Handle, Status) {
	h, st := t.backend.CreateContext(a)
	t.track(Context, h, 0, 0)
	return h, st
}

// CreateContextFromType calls clCreateContextFromType and tracks the new context.
func (t *Tracker) CreateContextFromType(a ContextFromTypeArgs) (Handle, Status) {
	h, st := t.backend.CreateContextFromType(a)
	t.track(Context, h, 0, 0)
	return h, st
}

// RetainContext calls clRetainContext and adds a reference to the tracked context.
func (t *Tracker) RetainContext(h Handle) Status {
	st := t.backend.RetainContext(h)
	t.retain(Context, h)
	return st
}

// ReleaseContext calls clReleaseContext and drops a reference from the tracked context.
func (t *Tracker) ReleaseContext(h Handle) Status {
	st := t.backend.ReleaseContext(h)
	t.release(Context, h)
	return st
}

// Command queues

// CreateCommandQueue calls clCreateCommandQueue and tracks the new queue.
func (t *Tracker) CreateCommandQueue(a QueueArgs) (Handle, Status) {
	h, st := t.backend.CreateCommandQueue(a)
	t.track(CommandQueue, h, 0, 0)
	return h, st
}

// CreateCommandQueueWithProperties is the OpenCL 2.0 form of CreateCommandQueue.
func (t *Tracker) CreateCommandQueueWithProperties(a QueuePropertiesArgs) (Handle, Status) {
	h, st := t.backend.CreateCommandQueueWithProperties(a)
	t.track(CommandQueue, h, 0, 0)
	return h, st
}

// RetainCommandQueue calls clRetainCommandQueue and adds a reference to the tracked command queue.
func (t *Tracker) RetainCommandQueue(h Handle) Status {
	st := t.backend.RetainCommandQueue(h)
	t.retain(CommandQueue, h)
	return st
}

// ReleaseCommandQueue calls clReleaseCommandQueue and drops a reference from the tracked command queue.
func (t *Tracker) ReleaseCommandQueue(h Handle) Status {
	st := t.backend.ReleaseCommandQueue(h)
	t.release(CommandQueue, h)
	return st
}

// Memory objects

// CreateBuffer calls clCreateBuffer and tracks the buffer with its requested size.
func (t *Tracker) CreateBuffer(a BufferArgs) (Handle, Status) {
	h, st := t.backend.CreateBuffer(a)
	t.track(MemObject, h, a.Size, 0)
	return h, st
}

// CreateSubBuffer tracks the sub-buffer as an alias: its bytes belong to
// the parent buffer.
func (t *Tracker) CreateSubBuffer(a SubBufferArgs) (Handle, Status) {
	h, st := t.backend.CreateSubBuffer(a)
	var size uint64
	if a.Region != nil {
		size = a.Region.Size
	}
	t.track(MemObject, h, size, FlagAlias)
	return h, st
}

// CreateImage tracks the image with a size estimated from its format and descriptor.
func (t *Tracker) CreateImage(a ImageArgs) (Handle, Status) {
	h, st := t.backend.CreateImage(a)
	var desc ImageDesc
	if a.Desc != nil {
		desc = *a.Desc
	}
	t.track(MemObject, h, EstimateImageSize(a.Format, desc), imageFlags(desc))
	return h, st
}

// CreateImage2D is the OpenCL 1.1 form of CreateImage for 2D images.
func (t *Tracker) CreateImage2D(a Image2DArgs) (Handle, Status) {
	h, st := t.backend.CreateImage2D(a)
	desc := ImageDesc{Type: MemObjectImage2D, Width: a.Width, Height: a.Height, RowPitch: a.RowPitch}
	t.track(MemObject, h, EstimateImageSize(a.Format, desc), FlagImage)
	return h, st
}

// CreateImage3D is the OpenCL 1.1 form of CreateImage for 3D images.
func (t *Tracker) CreateImage3D(a Image3DArgs) (Handle, Status) {
	h, st := t.backend.CreateImage3D(a)
	desc := ImageDesc{
		Type:       MemObjectImage3D,
		Width:      a.Width,
		Height:     a.Height,
		Depth:      a.Depth,
		RowPitch:   a.RowPitch,
		SlicePitch: a.SlicePitch,
	}
	t.track(MemObject, h, EstimateImageSize(a.Format, desc), FlagImage)
	return h, st
}

// RetainMemObject calls clRetainMemObject and adds a reference to the tracked memory object.
func (t *Tracker) RetainMemObject(h Handle) Status {
	st := t.backend.RetainMemObject(h)
	t.retain(MemObject, h)
	return st
}

// ReleaseMemObject calls clReleaseMemObject and drops a reference from the tracked memory object.
func (t *Tracker) ReleaseMemObject(h Handle) Status {
	st := t.backend.ReleaseMemObject(h)
	t.release(MemObject, h)
	return st
}

// Samplers

// CreateSampler calls clCreateSampler and tracks the new sampler.
func (t *Tracker) CreateSampler(a SamplerArgs) (Handle, Status) {
	h, st := t.backend.CreateSampler(a)
	t.track(Sampler, h, 0, 0)
	return h, st
}

// CreateSamplerWithProperties is the OpenCL 2.0 form of CreateSampler.
func (t *Tracker) CreateSamplerWithProperties(a SamplerPropertiesArgs) (Handle, Status) {
	h, st := t.backend.CreateSamplerWithProperties(a)
	t.track(Sampler, h, 0, 0)
	return h, st
}

// RetainSampler calls clRetainSampler and adds a reference to the tracked sampler.
func (t *Tracker) RetainSampler(h Handle) Status {
	st := t.backend.RetainSampler(h)
	t.retain(Sampler, h)
	return st
}

// ReleaseSampler calls clReleaseSampler and drops a reference from the tracked sampler.
func (t *Tracker) ReleaseSampler(h Handle) Status {
	st := t.backend.ReleaseSampler(h)
	t.release(Sampler, h)
	return st
}

// Programs

// CreateProgramWithSource calls clCreateProgramWithSource and tracks the new program.
func (t *Tracker) CreateProgramWithSource(a ProgramSourceArgs) (Handle, Status) {
	h, st := t.backend.CreateProgramWithSource(a)
	t.track(Program, h, 0, 0)
	return h, st
}

// CreateProgramWithBinary calls clCreateProgramWithBinary and tracks the new program.
func (t *Tracker) CreateProgramWithBinary(a ProgramBinaryArgs) (Handle, Status) {
	h, st := t.backend.CreateProgramWithBinary(a)
	t.track(Program, h, 0, 0)
	return h, st
}

// RetainProgram calls clRetainProgram and adds a reference to the tracked program.
func (t *Tracker) RetainProgram(h Handle) Status {
	st := t.backend.RetainProgram(h)
	t.retain(Program, h)
	return st
}

// ReleaseProgram calls clReleaseProgram and drops a reference from the tracked program.
func (t *Tracker) ReleaseProgram(h Handle) Status {
	st := t.backend.ReleaseProgram(h)
	t.release(Program, h)
	return st
}

// Kernels

// CreateKernel calls clCreateKernel and tracks the new kernel.
func (t *Tracker) CreateKernel(a KernelArgs) (Handle, Status) {
	h, st := t.backend.CreateKernel(a)
	t.track(Kernel, h, 0, 0)
	return h, st
}

// CreateKernelsInProgram tracks every kernel the implementation returned.
func (t *Tracker) CreateKernelsInProgram(a KernelsInProgramArgs) (Status, []Handle) {
	st, kernels := t.backend.CreateKernelsInProgram(a)
	if st == Success {
		for _, h := range kernels {
			t.track(Kernel, h, 0, 0)
		}
	}
	return st, kernels
}

// RetainKernel calls clRetainKernel and adds a reference to the tracked kernel.
func (t *Tracker) RetainKernel(h Handle) Status {
	st := t.backend.RetainKernel(h)
	t.retain(Kernel, h)
	return st
}

// ReleaseKernel calls clReleaseKernel and drops a reference from the tracked kernel.
func (t *Tracker) ReleaseKernel(h Handle) Status {
	st := t.backend.ReleaseKernel(h)
	t.release(Kernel, h)
	return st
}

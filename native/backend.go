//go:build cgo && (linux || darwin)

package native

/*
#include <stdint.h>
#include <stddef.h>

// Handles cross the boundary as uintptr_t and are cast here. Argument
// types follow the OpenCL ABI: cl_int is int32_t, cl_uint and enums are
// uint32_t, bitfields and cl_device_type are uint64_t.

typedef void *(*oclstat_create_context_fn)(const void *, uint32_t, const void *, void *, void *, int32_t *);
typedef void *(*oclstat_create_context_from_type_fn)(const void *, uint64_t, void *, void *, int32_t *);
typedef int32_t (*oclstat_refcount_fn)(void *);
typedef void *(*oclstat_create_queue_fn)(void *, void *, uint64_t, int32_t *);
typedef void *(*oclstat_create_queue_props_fn)(void *, void *, const void *, int32_t *);
typedef void *(*oclstat_create_buffer_fn)(void *, uint64_t, size_t, void *, int32_t *);
typedef void *(*oclstat_create_sub_buffer_fn)(void *, uint64_t, uint32_t, const void *, int32_t *);
typedef void *(*oclstat_create_image_fn)(void *, uint64_t, const void *, const void *, void *, int32_t *);
typedef void *(*oclstat_create_image2d_fn)(void *, uint64_t, const void *, size_t, size_t, size_t, void *, int32_t *);
typedef void *(*oclstat_create_image3d_fn)(void *, uint64_t, const void *, size_t, size_t, size_t, size_t, size_t, void *, int32_t *);
typedef void *(*oclstat_create_sampler_fn)(void *, uint32_t, uint32_t, uint32_t, int32_t *);
typedef void *(*oclstat_create_sampler_props_fn)(void *, const void *, int32_t *);
typedef void *(*oclstat_create_program_source_fn)(void *, uint32_t, const void *, const void *, int32_t *);
typedef void *(*oclstat_create_program_binary_fn)(void *, uint32_t, const void *, const void *, const void *, void *, int32_t *);
typedef void *(*oclstat_create_kernel_fn)(void *, const void *, int32_t *);
typedef int32_t (*oclstat_create_kernels_fn)(void *, uint32_t, void *, uint32_t *);

static uintptr_t oclstat_create_context(void *fn, void *props, uint32_t n, void *devices, void *notify, void *user, int32_t *err) {
    return (uintptr_t)((oclstat_create_context_fn)fn)(props, n, devices, notify, user, err);
}

static uintptr_t oclstat_create_context_from_type(void *fn, void *props, uint64_t type, void *notify, void *user, int32_t *err) {
    return (uintptr_t)((oclstat_create_context_from_type_fn)fn)(props, type, notify, user, err);
}

static int32_t oclstat_refcount(void *fn, uintptr_t h) {
    return ((oclstat_refcount_fn)fn)((void *)h);
}

static uintptr_t oclstat_create_queue(void *fn, uintptr_t ctx, uintptr_t dev, uint64_t props, int32_t *err) {
    return (uintptr_t)((oclstat_create_queue_fn)fn)((void *)ctx, (void *)dev, props, err);
}

static uintptr_t oclstat_create_queue_props(void *fn, uintptr_t ctx, uintptr_t dev, void *props, int32_t *err) {
    return (uintptr_t)((oclstat_create_queue_props_fn)fn)((void *)ctx, (void *)dev, props, err);
}

static uintptr_t oclstat_create_buffer(void *fn, uintptr_t ctx, uint64_t flags, size_t size, void *host, int32_t *err) {
    return (uintptr_t)((oclstat_create_buffer_fn)fn)((void *)ctx, flags, size, host, err);
}

static uintptr_t oclstat_create_sub_buffer(void *fn, uintptr_t buf, uint64_t flags, uint32_t type, void *info, int32_t *err) {
    return (uintptr_t)((oclstat_create_sub_buffer_fn)fn)((void *)buf, flags, type, info, err);
}

static uintptr_t oclstat_create_image(void *fn, uintptr_t ctx, uint64_t flags, void *format, void *desc, void *host, int32_t *err) {
    return (uintptr_t)((oclstat_create_image_fn)fn)((void *)ctx, flags, format, desc, host, err);
}

static uintptr_t oclstat_create_image2d(void *fn, uintptr_t ctx, uint64_t flags, void *format,
        size_t w, size_t h, size_t row, void *host, int32_t *err) {
    return (uintptr_t)((oclstat_create_image2d_fn)fn)((void *)ctx, flags, format, w, h, row, host, err);
}

static uintptr_t oclstat_create_image3d(void *fn, uintptr_t ctx, uint64_t flags, void *format,
        size_t w, size_t h, size_t d, size_t row, size_t slice, void *host, int32_t *err) {
    return (uintptr_t)((oclstat_create_image3d_fn)fn)((void *)ctx, flags, format, w, h, d, row, slice, host, err);
}

static uintptr_t oclstat_create_sampler(void *fn, uintptr_t ctx, uint32_t norm, uint32_t addr, uint32_t filter, int32_t *err) {
    return (uintptr_t)((oclstat_create_sampler_fn)fn)((void *)ctx, norm, addr, filter, err);
}

static uintptr_t oclstat_create_sampler_props(void *fn, uintptr_t ctx, void *props, int32_t *err) {
    return (uintptr_t)((oclstat_create_sampler_props_fn)fn)((void *)ctx, props, err);
}

static uintptr_t oclstat_create_program_source(void *fn, uintptr_t ctx, uint32_t count, void *strings, void *lengths, int32_t *err) {
    return (uintptr_t)((oclstat_create_program_source_fn)fn)((void *)ctx, count, strings, lengths, err);
}

static uintptr_t oclstat_create_program_binary(void *fn, uintptr_t ctx, uint32_t n, void *devices,
        void *lengths, void *binaries, void *status, int32_t *err) {
    return (uintptr_t)((oclstat_create_program_binary_fn)fn)((void *)ctx, n, devices, lengths, binaries, status, err);
}

static uintptr_t oclstat_create_kernel(void *fn, uintptr_t program, void *name, int32_t *err) {
    return (uintptr_t)((oclstat_create_kernel_fn)fn)((void *)program, name, err);
}

// Always asks for the kernel count so the caller learns how many entries
// of kernels were written, and forwards it to the client's out pointer.
static int32_t oclstat_create_kernels(void *fn, uintptr_t program, uint32_t n, void *kernels, void *client_ret, uint32_t *ret) {
    int32_t st = ((oclstat_create_kernels_fn)fn)((void *)program, n, kernels, ret);
    if (client_ret != NULL) {
        *(uint32_t *)client_ret = *ret;
    }
    return st;
}

static uintptr_t oclstat_kernel_at(void *kernels, uint32_t i) {
    return (uintptr_t)((void **)kernels)[i];
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/zimwip/oclstat"
)

type entry int

const (
	clCreateContext entry = iota
	clCreateContextFromType
	clRetainContext
	clReleaseContext
	clCreateCommandQueue
	clCreateCommandQueueWithProperties
	clRetainCommandQueue
	clReleaseCommandQueue
	clCreateBuffer
	clCreateSubBuffer
	clCreateImage
	clCreateImage2D
	clCreateImage3D
	clRetainMemObject
	clReleaseMemObject
	clCreateSampler
	clCreateSamplerWithProperties
	clRetainSampler
	clReleaseSampler
	clCreateProgramWithSource
	clCreateProgramWithBinary
	clRetainProgram
	clReleaseProgram
	clCreateKernel
	clCreateKernelsInProgram
	clRetainKernel
	clReleaseKernel
	numEntries
)

var entryNames = [numEntries]string{
	clCreateContext:                    "clCreateContext",
	clCreateContextFromType:            "clCreateContextFromType",
	clRetainContext:                    "clRetainContext",
	clReleaseContext:                   "clReleaseContext",
	clCreateCommandQueue:               "clCreateCommandQueue",
	clCreateCommandQueueWithProperties: "clCreateCommandQueueWithProperties",
	clRetainCommandQueue:               "clRetainCommandQueue",
	clReleaseCommandQueue:              "clReleaseCommandQueue",
	clCreateBuffer:                     "clCreateBuffer",
	clCreateSubBuffer:                  "clCreateSubBuffer",
	clCreateImage:                      "clCreateImage",
	clCreateImage2D:                    "clCreateImage2D",
	clCreateImage3D:                    "clCreateImage3D",
	clRetainMemObject:                  "clRetainMemObject",
	clReleaseMemObject:                 "clReleaseMemObject",
	clCreateSampler:                    "clCreateSampler",
	clCreateSamplerWithProperties:      "clCreateSamplerWithProperties",
	clRetainSampler:                    "clRetainSampler",
	clReleaseSampler:                   "clReleaseSampler",
	clCreateProgramWithSource:          "clCreateProgramWithSource",
	clCreateProgramWithBinary:          "clCreateProgramWithBinary",
	clRetainProgram:                    "clRetainProgram",
	clReleaseProgram:                   "clReleaseProgram",
	clCreateKernel:                     "clCreateKernel",
	clCreateKernelsInProgram:           "clCreateKernelsInProgram",
	clRetainKernel:                     "clRetainKernel",
	clReleaseKernel:                    "clReleaseKernel",
}

type symbol struct {
	once sync.Once
	ptr  unsafe.Pointer
}

// Backend forwards every call to the real OpenCL library. Entry points are
// resolved on first use; a missing one goes to the fatal handler.
type Backend struct {
	res   *Resolver
	fatal func(error)
	syms  [numEntries]symbol
}

var _ oclstat.Backend = (*Backend)(nil)

// NewBackend creates a backend resolving through res. fatal must not
// return; nil selects oclstat.Fatal.
func NewBackend(res *Resolver, fatal func(error)) *Backend {
	if fatal == nil {
		fatal = oclstat.Fatal
	}
	return &Backend{res: res, fatal: fatal}
}

func (b *Backend) fn(e entry) unsafe.Pointer {
	s := &b.syms[e]
	s.once.Do(func() {
		p, err := b.res.Resolve(entryNames[e])
		if err != nil {
			b.fatal(err)
			return
		}
		s.ptr = p
	})
	return s.ptr
}

func (b *Backend) refcount(e entry, h oclstat.Handle) oclstat.Status {
	return oclstat.Status(C.oclstat_refcount(b.fn(e), C.uintptr_t(h)))
}

func handle(p C.uintptr_t) oclstat.Handle {
	return oclstat.Handle(p)
}

func (b *Backend) CreateContext(a oclstat.ContextArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_context(b.fn(clCreateContext), a.Properties, C.uint32_t(a.NumDevices),
		a.Devices, a.Notify, a.UserData, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateContextFromType(a oclstat.ContextFromTypeArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_context_from_type(b.fn(clCreateContextFromType), a.Properties,
		C.uint64_t(a.DeviceType), a.Notify, a.UserData, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) RetainContext(h oclstat.Handle) oclstat.Status {
	return b.refcount(clRetainContext, h)
}

func (b *Backend) ReleaseContext(h oclstat.Handle) oclstat.Status {
	return b.refcount(clReleaseContext, h)
}

func (b *Backend) CreateCommandQueue(a oclstat.QueueArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_queue(b.fn(clCreateCommandQueue), C.uintptr_t(a.Context), C.uintptr_t(a.Device),
		C.uint64_t(a.Properties), &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateCommandQueueWithProperties(a oclstat.QueuePropertiesArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_queue_props(b.fn(clCreateCommandQueueWithProperties), C.uintptr_t(a.Context),
		C.uintptr_t(a.Device), a.Properties, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) RetainCommandQueue(h oclstat.Handle) oclstat.Status {
	return b.refcount(clRetainCommandQueue, h)
}

func (b *Backend) ReleaseCommandQueue(h oclstat.Handle) oclstat.Status {
	return b.refcount(clReleaseCommandQueue, h)
}

func (b *Backend) CreateBuffer(a oclstat.BufferArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_buffer(b.fn(clCreateBuffer), C.uintptr_t(a.Context), C.uint64_t(a.Flags),
		C.size_t(a.Size), a.HostPtr, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateSubBuffer(a oclstat.SubBufferArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_sub_buffer(b.fn(clCreateSubBuffer), C.uintptr_t(a.Buffer), C.uint64_t(a.Flags),
		C.uint32_t(a.CreateType), a.Info, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateImage(a oclstat.ImageArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_image(b.fn(clCreateImage), C.uintptr_t(a.Context), C.uint64_t(a.Flags),
		a.RawFormat, a.RawDesc, a.HostPtr, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateImage2D(a oclstat.Image2DArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_image2d(b.fn(clCreateImage2D), C.uintptr_t(a.Context), C.uint64_t(a.Flags),
		a.RawFormat, C.size_t(a.Width), C.size_t(a.Height), C.size_t(a.RowPitch), a.HostPtr, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateImage3D(a oclstat.Image3DArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_image3d(b.fn(clCreateImage3D), C.uintptr_t(a.Context), C.uint64_t(a.Flags),
		a.RawFormat, C.size_t(a.Width), C.size_t(a.Height), C.size_t(a.Depth),
		C.size_t(a.RowPitch), C.size_t(a.SlicePitch), a.HostPtr, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) RetainMemObject(h oclstat.Handle) oclstat.Status {
	return b.refcount(clRetainMemObject, h)
}

func (b *Backend) ReleaseMemObject(h oclstat.Handle) oclstat.Status {
	return b.refcount(clReleaseMemObject, h)
}

func (b *Backend) CreateSampler(a oclstat.SamplerArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_sampler(b.fn(clCreateSampler), C.uintptr_t(a.Context), C.uint32_t(a.Normalized),
		C.uint32_t(a.AddressingMode), C.uint32_t(a.FilterMode), &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateSamplerWithProperties(a oclstat.SamplerPropertiesArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_sampler_props(b.fn(clCreateSamplerWithProperties), C.uintptr_t(a.Context),
		a.Properties, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) RetainSampler(h oclstat.Handle) oclstat.Status {
	return b.refcount(clRetainSampler, h)
}

func (b *Backend) ReleaseSampler(h oclstat.Handle) oclstat.Status {
	return b.refcount(clReleaseSampler, h)
}

func (b *Backend) CreateProgramWithSource(a oclstat.ProgramSourceArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_program_source(b.fn(clCreateProgramWithSource), C.uintptr_t(a.Context),
		C.uint32_t(a.Count), a.Strings, a.Lengths, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) CreateProgramWithBinary(a oclstat.ProgramBinaryArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_program_binary(b.fn(clCreateProgramWithBinary), C.uintptr_t(a.Context),
		C.uint32_t(a.NumDevices), a.Devices, a.Lengths, a.Binaries, a.BinaryStatus, &st)
	return handle(h), oclstat.Status(st)
}

func (b *Backend) RetainProgram(h oclstat.Handle) oclstat.Status {
	return b.refcount(clRetainProgram, h)
}

func (b *Backend) ReleaseProgram(h oclstat.Handle) oclstat.Status {
	return b.refcount(clReleaseProgram, h)
}

func (b *Backend) CreateKernel(a oclstat.KernelArgs) (oclstat.Handle, oclstat.Status) {
	var st C.int32_t
	h := C.oclstat_create_kernel(b.fn(clCreateKernel), C.uintptr_t(a.Program), a.Name, &st)
	return handle(h), oclstat.Status(st)
}

// CreateKernelsInProgram returns the kernels written to the client's
// array, which is empty when the client only queried the count.
func (b *Backend) CreateKernelsInProgram(a oclstat.KernelsInProgramArgs) (oclstat.Status, []oclstat.Handle) {
	var n C.uint32_t
	st := oclstat.Status(C.oclstat_create_kernels(b.fn(clCreateKernelsInProgram), C.uintptr_t(a.Program),
		C.uint32_t(a.NumKernels), a.Kernels, a.NumKernelsRet, &n))
	if st != oclstat.Success || a.Kernels == nil {
		return st, nil
	}
	count := min(uint32(n), a.NumKernels)
	kernels := make([]oclstat.Handle, 0, count)
	for i := uint32(0); i < count; i++ {
		kernels = append(kernels, handle(C.oclstat_kernel_at(a.Kernels, C.uint32_t(i))))
	}
	return st, kernels
}

func (b *Backend) RetainKernel(h oclstat.Handle) oclstat.Status {
	return b.refcount(clRetainKernel, h)
}

func (b *Backend) ReleaseKernel(h oclstat.Handle) oclstat.Status {
	return b.refcount(clReleaseKernel, h)
}

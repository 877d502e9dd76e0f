package oclstat

import "unsafe"

// Backend is the real OpenCL implementation as seen by the tracker. There
// is one method per intercepted entry point. Create methods return the new
// handle and the status the implementation wrote to errcode_ret.
//
// The native backend in package native binds to libOpenCL; package fake
// provides a scripted backend for tests.
type Backend interface {
	CreateContext(a ContextArgs) (Handle, Status)
	CreateContextFromType(a ContextFromTypeArgs) (Handle, Status)
	RetainContext(h Handle) Status
	ReleaseContext(h Handle) Status

	CreateCommandQueue(a QueueArgs) (Handle, Status)
	CreateCommandQueueWithProperties(a QueuePropertiesArgs) (Handle, Status)
	RetainCommandQueue(h Handle) Status
	ReleaseCommandQueue(h Handle) Status

	CreateBuffer(a BufferArgs) (Handle, Status)
	CreateSubBuffer(a SubBufferArgs) (Handle, Status)
	CreateImage(a ImageArgs) (Handle, Status)
	CreateImage2D(a Image2DArgs) (Handle, Status)
	CreateImage3D(a Image3DArgs) (Handle, Status)
	RetainMemObject(h Handle) Status
	ReleaseMemObject(h Handle) Status

	CreateSampler(a SamplerArgs) (Handle, Status)
	CreateSamplerWithProperties(a SamplerPropertiesArgs) (Handle, Status)
	RetainSampler(h Handle) Status
	ReleaseSampler(h Handle) Status

	CreateProgramWithSource(a ProgramSourceArgs) (Handle, Status)
	CreateProgramWithBinary(a ProgramBinaryArgs) (Handle, Status)
	RetainProgram(h Handle) Status
	ReleaseProgram(h Handle) Status

	CreateKernel(a KernelArgs) (Handle, Status)
	// CreateKernelsInProgram returns the status and the kernels the
	// implementation wrote to the client's array.
	CreateKernelsInProgram(a KernelsInProgramArgs) (Status, []Handle)
	RetainKernel(h Handle) Status
	ReleaseKernel(h Handle) Status
}

// Argument structs carry the client's raw pointers untouched. Fields with
// decoded values exist only where the tracker needs them for accounting.

// ContextArgs are the arguments of clCreateContext.
type ContextArgs struct {
	Properties unsafe.Pointer
	NumDevices uint32
	Devices    unsafe.Pointer
	Notify     unsafe.Pointer
	UserData   unsafe.Pointer
}

// ContextFromTypeArgs are the arguments of clCreateContextFromType.
type ContextFromTypeArgs struct {
	Properties unsafe.Pointer
	DeviceType uint64
	Notify     unsafe.Pointer
	UserData   unsafe.Pointer
}

// QueueArgs are the arguments of clCreateCommandQueue.
type QueueArgs struct {
	Context    Handle
	Device     Handle
	Properties uint64
}

// QueuePropertiesArgs are the arguments of clCreateCommandQueueWithProperties.
type QueuePropertiesArgs struct {
	Context    Handle
	Device     Handle
	Properties unsafe.Pointer
}

// BufferArgs are the arguments of clCreateBuffer. Size is the tracked size.
type BufferArgs struct {
	Context Handle
	Flags   uint64
	Size    uint64
	HostPtr unsafe.Pointer
}

// BufferRegion is a decoded cl_buffer_region.
type BufferRegion struct {
	Origin uint64
	Size   uint64
}

// SubBufferArgs are the arguments of clCreateSubBuffer.
type SubBufferArgs struct {
	Buffer     Handle
	Flags      uint64
	CreateType uint32
	Info       unsafe.Pointer
	// Region is decoded from Info when CreateType is CL_BUFFER_CREATE_TYPE_REGION.
	Region *BufferRegion
}

// ImageArgs are the arguments of clCreateImage.
type ImageArgs struct {
	Context   Handle
	Flags     uint64
	RawFormat unsafe.Pointer
	RawDesc   unsafe.Pointer
	HostPtr   unsafe.Pointer
	Format    *ImageFormat
	Desc      *ImageDesc
}

// Image2DArgs are the arguments of clCreateImage2D.
type Image2DArgs struct {
	Context   Handle
	Flags     uint64
	RawFormat unsafe.Pointer
	Format    *ImageFormat
	Width     uint64
	Height    uint64
	RowPitch  uint64
	HostPtr   unsafe.Pointer
}

// Image3DArgs are the arguments of clCreateImage3D.
type Image3DArgs struct {
	Context    Handle
	Flags      uint64
	RawFormat  unsafe.Pointer
	Format     *ImageFormat
	Width      uint64
	Height     uint64
	Depth      uint64
	RowPitch   uint64
	SlicePitch uint64
	HostPtr    unsafe.Pointer
}

// SamplerArgs are the arguments of clCreateSampler.
type SamplerArgs struct {
	Context        Handle
	Normalized     uint32
	AddressingMode uint32
	FilterMode     uint32
}

// SamplerPropertiesArgs are the arguments of clCreateSamplerWithProperties.
type SamplerPropertiesArgs struct {
	Context    Handle
	Properties unsafe.Pointer
}

// ProgramSourceArgs are the arguments of clCreateProgramWithSource.
type ProgramSourceArgs struct {
	Context Handle
	Count   uint32
	Strings unsafe.Pointer
	Lengths unsafe.Pointer
}

// ProgramBinaryArgs are the arguments of clCreateProgramWithBinary.
type ProgramBinaryArgs struct {
	Context      Handle
	NumDevices   uint32
	Devices      unsafe.Pointer
	Lengths      unsafe.Pointer
	Binaries     unsafe.Pointer
	BinaryStatus unsafe.Pointer
}

// KernelArgs are the arguments of clCreateKernel.
type KernelArgs struct {
	Program Handle
	Name    unsafe.Pointer
}

// KernelsInProgramArgs are the arguments of clCreateKernelsInProgram.
type KernelsInProgramArgs struct {
	Program       Handle
	NumKernels    uint32
	Kernels       unsafe.Pointer
	NumKernelsRet unsafe.Pointer
}

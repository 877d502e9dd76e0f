//go:build cgo && (linux || darwin)

package main

/*
#include "cltypes.h"
*/
import "C"

import (
	"unsafe"

	"github.com/zimwip/oclstat"
)

// The cl* symbols are defined in entry.c. Each records the caller's native
// stack and calls the matching shim* function below.

func handle(p unsafe.Pointer) oclstat.Handle {
	return oclstat.Handle(uintptr(p))
}

func setErr(errcodeRet *C.cl_int, st oclstat.Status) {
	if errcodeRet != nil {
		*errcodeRet = C.cl_int(st)
	}
}

func imageFormat(p *C.cl_image_format) *oclstat.ImageFormat {
	if p == nil {
		return nil
	}
	return &oclstat.ImageFormat{
		ChannelOrder:    uint32(p.image_channel_order),
		ChannelDataType: uint32(p.image_channel_data_type),
	}
}

func imageDesc(p *C.cl_image_desc) *oclstat.ImageDesc {
	if p == nil {
		return nil
	}
	return &oclstat.ImageDesc{
		Type:       uint32(p.image_type),
		Width:      uint64(p.image_width),
		Height:     uint64(p.image_height),
		Depth:      uint64(p.image_depth),
		ArraySize:  uint64(p.image_array_size),
		RowPitch:   uint64(p.image_row_pitch),
		SlicePitch: uint64(p.image_slice_pitch),
	}
}

// Contexts

//export shimCreateContext
func shimCreateContext(properties *C.cl_context_properties, numDevices C.cl_uint, devices *C.cl_device_id,
	notify unsafe.Pointer, userData unsafe.Pointer, errcodeRet *C.cl_int) C.cl_context {
	h, st := shim().CreateContext(oclstat.ContextArgs{
		Properties: unsafe.Pointer(properties),
		NumDevices: uint32(numDevices),
		Devices:    unsafe.Pointer(devices),
		Notify:     notify,
		UserData:   userData,
	})
	setErr(errcodeRet, st)
	return C.oclstat_context(C.uintptr_t(h))
}

//export shimCreateContextFromType
func shimCreateContextFromType(properties *C.cl_context_properties, deviceType C.cl_device_type,
	notify unsafe.Pointer, userData unsafe.Pointer, errcodeRet *C.cl_int) C.cl_context {
	h, st := shim().CreateContextFromType(oclstat.ContextFromTypeArgs{
		Properties: unsafe.Pointer(properties),
		DeviceType: uint64(deviceType),
		Notify:     notify,
		UserData:   userData,
	})
	setErr(errcodeRet, st)
	return C.oclstat_context(C.uintptr_t(h))
}

//export shimRetainContext
func shimRetainContext(context C.cl_context) C.cl_int {
	return C.cl_int(shim().RetainContext(handle(unsafe.Pointer(context))))
}

//export shimReleaseContext
func shimReleaseContext(context C.cl_context) C.cl_int {
	return C.cl_int(shim().ReleaseContext(handle(unsafe.Pointer(context))))
}

// Command queues

//export shimCreateCommandQueue
func shimCreateCommandQueue(context C.cl_context, device C.cl_device_id,
	properties C.cl_command_queue_properties, errcodeRet *C.cl_int) C.cl_command_queue {
	h, st := shim().CreateCommandQueue(oclstat.QueueArgs{
		Context:    handle(unsafe.Pointer(context)),
		Device:     handle(unsafe.Pointer(device)),
		Properties: uint64(properties),
	})
	setErr(errcodeRet, st)
	return C.oclstat_queue(C.uintptr_t(h))
}

//export shimCreateCommandQueueWithProperties
func shimCreateCommandQueueWithProperties(context C.cl_context, device C.cl_device_id,
	properties *C.cl_queue_properties, errcodeRet *C.cl_int) C.cl_command_queue {
	h, st := shim().CreateCommandQueueWithProperties(oclstat.QueuePropertiesArgs{
		Context:    handle(unsafe.Pointer(context)),
		Device:     handle(unsafe.Pointer(device)),
		Properties: unsafe.Pointer(properties),
	})
	setErr(errcodeRet, st)
	return C.oclstat_queue(C.uintptr_t(h))
}

//export shimRetainCommandQueue
func shimRetainCommandQueue(queue C.cl_command_queue) C.cl_int {
	return C.cl_int(shim().RetainCommandQueue(handle(unsafe.Pointer(queue))))
}

//export shimReleaseCommandQueue
func shimReleaseCommandQueue(queue C.cl_command_queue) C.cl_int {
	return C.cl_int(shim().ReleaseCommandQueue(handle(unsafe.Pointer(queue))))
}

// Memory objects

//export shimCreateBuffer
func shimCreateBuffer(context C.cl_context, flags C.cl_mem_flags, size C.size_t,
	hostPtr unsafe.Pointer, errcodeRet *C.cl_int) C.cl_mem {
	h, st := shim().CreateBuffer(oclstat.BufferArgs{
		Context: handle(unsafe.Pointer(context)),
		Flags:   uint64(flags),
		Size:    uint64(size),
		HostPtr: hostPtr,
	})
	setErr(errcodeRet, st)
	return C.oclstat_mem(C.uintptr_t(h))
}

//export shimCreateSubBuffer
func shimCreateSubBuffer(buffer C.cl_mem, flags C.cl_mem_flags, createType C.cl_buffer_create_type,
	info unsafe.Pointer, errcodeRet *C.cl_int) C.cl_mem {
	a := oclstat.SubBufferArgs{
		Buffer:     handle(unsafe.Pointer(buffer)),
		Flags:      uint64(flags),
		CreateType: uint32(createType),
		Info:       info,
	}
	if a.CreateType == oclstat.BufferCreateTypeRegion && info != nil {
		r := (*C.cl_buffer_region)(info)
		a.Region = &oclstat.BufferRegion{Origin: uint64(r.origin), Size: uint64(r.size)}
	}
	h, st := shim().CreateSubBuffer(a)
	setErr(errcodeRet, st)
	return C.oclstat_mem(C.uintptr_t(h))
}

//export shimCreateImage
func shimCreateImage(context C.cl_context, flags C.cl_mem_flags, format *C.cl_image_format,
	desc *C.cl_image_desc, hostPtr unsafe.Pointer, errcodeRet *C.cl_int) C.cl_mem {
	h, st := shim().CreateImage(oclstat.ImageArgs{
		Context:   handle(unsafe.Pointer(context)),
		Flags:     uint64(flags),
		RawFormat: unsafe.Pointer(format),
		RawDesc:   unsafe.Pointer(desc),
		HostPtr:   hostPtr,
		Format:    imageFormat(format),
		Desc:      imageDesc(desc),
	})
	setErr(errcodeRet, st)
	return C.oclstat_mem(C.uintptr_t(h))
}

//export shimCreateImage2D
func shimCreateImage2D(context C.cl_context, flags C.cl_mem_flags, format *C.cl_image_format,
	width, height, rowPitch C.size_t, hostPtr unsafe.Pointer, errcodeRet *C.cl_int) C.cl_mem {
	h, st := shim().CreateImage2D(oclstat.Image2DArgs{
		Context:   handle(unsafe.Pointer(context)),
		Flags:     uint64(flags),
		RawFormat: unsafe.Pointer(format),
		Format:    imageFormat(format),
		Width:     uint64(width),
		Height:    uint64(height),
		RowPitch:  uint64(rowPitch),
		HostPtr:   hostPtr,
	})
	setErr(errcodeRet, st)
	return C.oclstat_mem(C.uintptr_t(h))
}

//export shimCreateImage3D
func shimCreateImage3D(context C.cl_context, flags C.cl_mem_flags, format *C.cl_image_format,
	width, height, depth, rowPitch, slicePitch C.size_t, hostPtr unsafe.Pointer, errcodeRet *C.cl_int) C.cl_mem {
	h, st := shim().CreateImage3D(oclstat.Image3DArgs{
		Context:    handle(unsafe.Pointer(context)),
		Flags:      uint64(flags),
		RawFormat:  unsafe.Pointer(format),
		Format:     imageFormat(format),
		Width:      uint64(width),
		Height:     uint64(height),
		Depth:      uint64(depth),
		RowPitch:   uint64(rowPitch),
		SlicePitch: uint64(slicePitch),
		HostPtr:    hostPtr,
	})
	setErr(errcodeRet, st)
	return C.oclstat_mem(C.uintptr_t(h))
}

//export shimRetainMemObject
func shimRetainMemObject(mem C.cl_mem) C.cl_int {
	return C.cl_int(shim().RetainMemObject(handle(unsafe.Pointer(mem))))
}

//export shimReleaseMemObject
func shimReleaseMemObject(mem C.cl_mem) C.cl_int {
	return C.cl_int(shim().ReleaseMemObject(handle(unsafe.Pointer(mem))))
}

// Samplers

//export shimCreateSampler
func shimCreateSampler(context C.cl_context, normalized C.cl_bool, addressing C.cl_addressing_mode,
	filter C.cl_filter_mode, errcodeRet *C.cl_int) C.cl_sampler {
	h, st := shim().CreateSampler(oclstat.SamplerArgs{
		Context:        handle(unsafe.Pointer(context)),
		Normalized:     uint32(normalized),
		AddressingMode: uint32(addressing),
		FilterMode:     uint32(filter),
	})
	setErr(errcodeRet, st)
	return C.oclstat_sampler(C.uintptr_t(h))
}

//export shimCreateSamplerWithProperties
func shimCreateSamplerWithProperties(context C.cl_context, properties *C.cl_sampler_properties,
	errcodeRet *C.cl_int) C.cl_sampler {
	h, st := shim().CreateSamplerWithProperties(oclstat.SamplerPropertiesArgs{
		Context:    handle(unsafe.Pointer(context)),
		Properties: unsafe.Pointer(properties),
	})
	setErr(errcodeRet, st)
	return C.oclstat_sampler(C.uintptr_t(h))
}

//export shimRetainSampler
func shimRetainSampler(sampler C.cl_sampler) C.cl_int {
	return C.cl_int(shim().RetainSampler(handle(unsafe.Pointer(sampler))))
}

//export shimReleaseSampler
func shimReleaseSampler(sampler C.cl_sampler) C.cl_int {
	return C.cl_int(shim().ReleaseSampler(handle(unsafe.Pointer(sampler))))
}

// Programs

//export shimCreateProgramWithSource
func shimCreateProgramWithSource(context C.cl_context, count C.cl_uint, strings unsafe.Pointer,
	lengths *C.size_t, errcodeRet *C.cl_int) C.cl_program {
	h, st := shim().CreateProgramWithSource(oclstat.ProgramSourceArgs{
		Context: handle(unsafe.Pointer(context)),
		Count:   uint32(count),
		Strings: strings,
		Lengths: unsafe.Pointer(lengths),
	})
	setErr(errcodeRet, st)
	return C.oclstat_program(C.uintptr_t(h))
}

//export shimCreateProgramWithBinary
func shimCreateProgramWithBinary(context C.cl_context, numDevices C.cl_uint, devices *C.cl_device_id,
	lengths *C.size_t, binaries unsafe.Pointer, binaryStatus *C.cl_int, errcodeRet *C.cl_int) C.cl_program {
	h, st := shim().CreateProgramWithBinary(oclstat.ProgramBinaryArgs{
		Context:      handle(unsafe.Pointer(context)),
		NumDevices:   uint32(numDevices),
		Devices:      unsafe.Pointer(devices),
		Lengths:      unsafe.Pointer(lengths),
		Binaries:     binaries,
		BinaryStatus: unsafe.Pointer(binaryStatus),
	})
	setErr(errcodeRet, st)
	return C.oclstat_program(C.uintptr_t(h))
}

//export shimRetainProgram
func shimRetainProgram(program C.cl_program) C.cl_int {
	return C.cl_int(shim().RetainProgram(handle(unsafe.Pointer(program))))
}

//export shimReleaseProgram
func shimReleaseProgram(program C.cl_program) C.cl_int {
	return C.cl_int(shim().ReleaseProgram(handle(unsafe.Pointer(program))))
}

// Kernels

//export shimCreateKernel
func shimCreateKernel(program C.cl_program, name *C.char, errcodeRet *C.cl_int) C.cl_kernel {
	h, st := shim().CreateKernel(oclstat.KernelArgs{
		Program: handle(unsafe.Pointer(program)),
		Name:    unsafe.Pointer(name),
	})
	setErr(errcodeRet, st)
	return C.oclstat_kernel(C.uintptr_t(h))
}

//export shimCreateKernelsInProgram
func shimCreateKernelsInProgram(program C.cl_program, numKernels C.cl_uint, kernels *C.cl_kernel,
	numKernelsRet *C.cl_uint) C.cl_int {
	st, _ := shim().CreateKernelsInProgram(oclstat.KernelsInProgramArgs{
		Program:       handle(unsafe.Pointer(program)),
		NumKernels:    uint32(numKernels),
		Kernels:       unsafe.Pointer(kernels),
		NumKernelsRet: unsafe.Pointer(numKernelsRet),
	})
	return C.cl_int(st)
}

//export shimRetainKernel
func shimRetainKernel(kernel C.cl_kernel) C.cl_int {
	return C.cl_int(shim().RetainKernel(handle(unsafe.Pointer(kernel))))
}

//export shimReleaseKernel
func shimReleaseKernel(kernel C.cl_kernel) C.cl_int {
	return C.cl_int(shim().ReleaseKernel(handle(unsafe.Pointer(kernel))))
}

// Package oclstat tracks the lifecycle of OpenCL objects to find leaks and
// retain/release misuse.
//
// A Tracker forwards every intercepted entry point to a Backend (the real
// implementation, or a fake in tests) and mirrors the reference count of
// contexts, command queues, memory objects, samplers, programs and kernels
// in a Registry. Reports summarize created and alive objects per category
// and the bytes still held by memory objects.
//
// The preloadable shared library lives in cmd/oclstat and the cgo binding
// to libOpenCL in package native.
package oclstat

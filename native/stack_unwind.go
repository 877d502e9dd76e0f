//go:build cgo && (linux || darwin) && !nounwind

package native

/*
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdint.h>
#include "stack.h"

// Returns 0 when pc has no symbol.
static int oclstat_symbolize(uintptr_t pc, const char **name, uintptr_t *offset, const char **object) {
    Dl_info info;
    if (dladdr((void *)pc, &info) == 0 || info.dli_sname == NULL) {
        return 0;
    }
    *name = info.dli_sname;
    *offset = pc - (uintptr_t)info.dli_saddr;
    *object = info.dli_fname;
    return 1;
}
*/
import "C"

import "github.com/zimwip/oclstat"

// Stacks names the native frames of the client code that called the
// current entry point. The frames are recorded by the exported cl* symbols
// before they enter Go, because the unwinder cannot walk from Go back
// through the cgo callback. Snapshot names them with dladdr and stops at
// the first frame without a symbol.
type Stacks struct {
	Depth int
}

var _ oclstat.StackSnapshotter = Stacks{}

func (s Stacks) depth() int {
	if s.Depth <= 0 {
		return 32
	}
	return min(s.Depth, C.OCLSTAT_MAX_FRAMES)
}

// Enable makes the entry points record up to Depth frames.
func (s Stacks) Enable() {
	C.oclstat_stack_enable(C.int(s.depth()))
}

// Disable stops the recording.
func (Stacks) Disable() {
	C.oclstat_stack_enable(0)
}

// Snapshot implements oclstat.StackSnapshotter. The recorded frames start
// at the client's call site, so skip is not needed. Outside an entry point
// it returns nil.
func (s Stacks) Snapshot(int) []oclstat.Frame {
	pcs := make([]C.uintptr_t, s.depth())
	n := int(C.oclstat_stack_frames(&pcs[0], C.int(len(pcs))))

	var out []oclstat.Frame
	for _, pc := range pcs[:n] {
		var (
			name   *C.char
			object *C.char
			offset C.uintptr_t
		)
		if C.oclstat_symbolize(pc, &name, &offset, &object) == 0 {
			break
		}
		out = append(out, oclstat.Frame{
			Function: C.GoString(name),
			Offset:   uintptr(offset),
			File:     C.GoString(object),
		})
	}
	return out
}

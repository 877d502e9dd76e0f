//go:build cgo && (linux || darwin)

// Package native binds the tracker to the system OpenCL library through
// dlopen, and provides the C side of the preloaded shim: stack unwinding
// and the exit hook.
package native

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

static void *oclstat_dlopen(const char *path) {
    return dlopen(path, RTLD_LAZY | RTLD_LOCAL);
}

// Clears any stale error before the lookup so a NULL symbol can be told
// apart from a failed one.
static void *oclstat_dlsym(void *lib, const char *name, const char **err) {
    dlerror();
    void *sym = dlsym(lib, name);
    *err = dlerror();
    return sym;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/zimwip/oclstat"
)

// Resolver loads the real OpenCL library once and looks up its entry
// points by name. Lookups are cached.
type Resolver struct {
	path string

	once sync.Once
	mu   sync.Mutex
	lib  unsafe.Pointer
	err  error
	syms map[string]unsafe.Pointer
}

// NewResolver creates a resolver for the library at path. An empty path
// selects oclstat.DefaultLibrary.
func NewResolver(path string) *Resolver {
	if path == "" {
		path = oclstat.DefaultLibrary
	}
	return &Resolver{path: path, syms: make(map[string]unsafe.Pointer)}
}

// Path returns the library path the resolver opens.
func (r *Resolver) Path() string {
	return r.path
}

// Open loads the library. Only the first call does any work; later calls
// return the same result.
func (r *Resolver) Open() error {
	r.once.Do(func() {
		cpath := C.CString(r.path)
		defer C.free(unsafe.Pointer(cpath))

		lib := C.oclstat_dlopen(cpath)
		if lib == nil {
			r.err = fmt.Errorf("%w: %s: %s", oclstat.ErrLibraryNotFound, r.path, C.GoString(C.dlerror()))
			return
		}
		r.lib = lib
		oclstat.Logger().Debug("opened library", "path", r.path)
	})
	return r.err
}

// Resolve returns the address of the named entry point in the real
// library, opening it first if needed.
func (r *Resolver) Resolve(name string) (unsafe.Pointer, error) {
	if err := r.Open(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.syms[name]; ok {
		return p, nil
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var cerr *C.char
	p := C.oclstat_dlsym(r.lib, cname, &cerr)
	if cerr != nil {
		return nil, fmt.Errorf("%w: %s: %s", oclstat.ErrSymbolNotFound, name, C.GoString(cerr))
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s in %s", oclstat.ErrSymbolNotFound, name, r.path)
	}
	r.syms[name] = p
	return p, nil
}

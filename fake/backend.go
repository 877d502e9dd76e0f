// Package fake provides a scripted oclstat.Backend for tests.
package fake

import (
	"sync"

	"github.com/zimwip/oclstat"
)

// Call records one invocation of the fake.
type Call struct {
	Method string
	Handle oclstat.Handle
	Status oclstat.Status
}

// Backend models an OpenCL implementation: it hands out unique handles,
// keeps its own reference counts, and returns scripted statuses.
type Backend struct {
	mu      sync.Mutex
	next    oclstat.Handle
	forced  []oclstat.Handle
	scripts map[string][]oclstat.Status
	refs    map[oclstat.Handle]int
	calls   []Call

	// KernelsPerProgram is how many kernels CreateKernelsInProgram returns.
	KernelsPerProgram int
}

var _ oclstat.Backend = (*Backend)(nil)

// New creates a fake whose calls all succeed until scripted otherwise.
func New() *Backend {
	return &Backend{
		next:              0x1000,
		scripts:           make(map[string][]oclstat.Status),
		refs:              make(map[oclstat.Handle]int),
		KernelsPerProgram: 2,
	}
}

// Script queues statuses for the next calls of method, named after the
// OpenCL entry point ("clCreateBuffer"). Once the queue is drained calls
// behave normally again.
func (b *Backend) Script(method string, statuses ...oclstat.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[method] = append(b.scripts[method], statuses...)
}

// ForceHandles makes the next successful creates return hs in order,
// which lets tests simulate address reuse.
func (b *Backend) ForceHandles(hs ...oclstat.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forced = append(b.forced, hs...)
}

// Calls returns every call made so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// Count returns how many times method was called.
func (b *Backend) Count(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Refs returns the fake's own reference count for h, 0 once destroyed.
func (b *Backend) Refs(h oclstat.Handle) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs[h]
}

func (b *Backend) pop(method string) (oclstat.Status, bool) {
	q := b.scripts[method]
	if len(q) == 0 {
		return oclstat.Success, false
	}
	b.scripts[method] = q[1:]
	return q[0], true
}

func (b *Backend) alloc() oclstat.Handle {
	if len(b.forced) > 0 {
		h := b.forced[0]
		b.forced = b.forced[1:]
		return h
	}
	h := b.next
	b.next += 0x10
	return h
}

func (b *Backend) create(method string) (oclstat.Handle, oclstat.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, _ := b.pop(method)
	var h oclstat.Handle
	if st == oclstat.Success {
		h = b.alloc()
		b.refs[h] = 1
	}
	b.calls = append(b.calls, Call{Method: method, Handle: h, Status: st})
	return h, st
}

func (b *Backend) retain(method string, h oclstat.Handle, invalid oclstat.Status) oclstat.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, scripted := b.pop(method)
	if !scripted {
		if _, ok := b.refs[h]; ok {
			b.refs[h]++
		} else {
			st = invalid
		}
	}
	b.calls = append(b.calls, Call{Method: method, Handle: h, Status: st})
	return st
}

func (b *Backend) release(method string, h oclstat.Handle, invalid oclstat.Status) oclstat.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, scripted := b.pop(method)
	if !scripted {
		if n, ok := b.refs[h]; ok {
			if n <= 1 {
				delete(b.refs, h)
			} else {
				b.refs[h] = n - 1
			}
		} else {
			st = invalid
		}
	}
	b.calls = append(b.calls, Call{Method: method, Handle: h, Status: st})
	return st
}

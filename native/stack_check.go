//go:build cgo && (linux || darwin) && !nounwind

package native

/*
#cgo linux LDFLAGS: -rdynamic
void oclstat_check_caller(void);
*/
import "C"

import (
	"sync"

	"github.com/zimwip/oclstat"
)

var check struct {
	sync.Mutex
	stacks oclstat.StackSnapshotter
	frames []oclstat.Frame
}

//export oclstatCheckStack
func oclstatCheckStack() {
	check.frames = check.stacks.Snapshot(0)
}

// checkStacks runs s inside a C entry point called by the C function
// oclstat_check_caller and returns what it captured.
func checkStacks(s oclstat.StackSnapshotter) []oclstat.Frame {
	check.Lock()
	defer check.Unlock()
	check.stacks = s
	check.frames = nil
	C.oclstat_check_caller()
	return check.frames
}

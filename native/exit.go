//go:build cgo && (linux || darwin)

package native

/*
#include <stdlib.h>

extern void oclstatAtExit(void);

static void oclstat_on_exit(void) {
    oclstatAtExit();
}

static int oclstat_register_exit(void) {
    return atexit(oclstat_on_exit);
}
*/
import "C"

import (
	"errors"
	"sync"
)

var (
	exitMu    sync.Mutex
	exitHooks []func()
	exitOnce  sync.Once
	exitErr   error
)

// AtExit runs fn when the host process exits through exit(3), including a
// return from main. Hooks run in registration order.
func AtExit(fn func()) error {
	exitOnce.Do(func() {
		if C.oclstat_register_exit() != 0 {
			exitErr = errors.New("native: atexit registration failed")
		}
	})
	if exitErr != nil {
		return exitErr
	}
	exitMu.Lock()
	exitHooks = append(exitHooks, fn)
	exitMu.Unlock()
	return nil
}

func runExitHooks() {
	exitMu.Lock()
	hooks := exitHooks
	exitHooks = nil
	exitMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

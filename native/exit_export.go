//go:build cgo && (linux || darwin)

package native

import "C"

//export oclstatAtExit
func oclstatAtExit() {
	runExitHooks()
}

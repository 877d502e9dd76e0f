//go:build cgo && (linux || darwin) && nounwind

package native

import "github.com/zimwip/oclstat"

// Stacks is disabled in nounwind builds.
type Stacks struct {
	Depth int
}

var _ oclstat.StackSnapshotter = Stacks{}

// Enable does nothing.
func (Stacks) Enable() {}

// Disable does nothing.
func (Stacks) Disable() {}

// Snapshot always returns nil.
func (Stacks) Snapshot(int) []oclstat.Frame { return nil }

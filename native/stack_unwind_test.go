//go:build cgo && linux && !nounwind

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStacksNameTheCaller(t *testing.T) {
	s := Stacks{Depth: 8}
	s.Enable()
	defer s.Disable()

	frames := checkStacks(s)
	require.NotEmpty(t, frames)
	assert.LessOrEqual(t, len(frames), 8)
	assert.Equal(t, "oclstat_check_caller", frames[0].Function)
	assert.Positive(t, frames[0].Offset)
	assert.NotEmpty(t, frames[0].File)
}

func TestStacksRespectsDepth(t *testing.T) {
	s := Stacks{Depth: 1}
	s.Enable()
	defer s.Disable()

	frames := checkStacks(s)
	require.Len(t, frames, 1)
	assert.Equal(t, "oclstat_check_caller", frames[0].Function)
}

func TestStacksDisabled(t *testing.T) {
	s := Stacks{Depth: 8}
	s.Disable()
	assert.Empty(t, checkStacks(s))
}

func TestStacksOutsideEntryPoint(t *testing.T) {
	s := Stacks{Depth: 8}
	s.Enable()
	defer s.Disable()
	assert.Nil(t, s.Snapshot(0))
}

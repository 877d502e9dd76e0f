//go:build cgo && (linux || darwin)

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtExitOrder(t *testing.T) {
	var got []int
	require.NoError(t, AtExit(func() { got = append(got, 1) }))
	require.NoError(t, AtExit(func() { got = append(got, 2) }))

	runExitHooks()
	assert.Equal(t, []int{1, 2}, got)

	// Hooks run once.
	runExitHooks()
	assert.Equal(t, []int{1, 2}, got)
}

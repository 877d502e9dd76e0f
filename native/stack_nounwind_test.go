//go:build cgo && linux && nounwind

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStacksNoUnwind(t *testing.T) {
	s := Stacks{Depth: 8}
	s.Enable()
	defer s.Disable()
	assert.Nil(t, s.Snapshot(0))
}

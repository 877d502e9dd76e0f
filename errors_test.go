package oclstat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationError(t *testing.T) {
	v := &Violation{Category: MemObject, Op: OpRelease, Handle: 0xbeef, Err: ErrUnknownHandle}
	assert.Equal(t, "release of buffers/images 0xbeef: unknown handle", v.Error())

	err := fmt.Errorf("wrapped: %w", v)
	assert.ErrorIs(t, err, ErrUnknownHandle)

	var got *Violation
	require.True(t, errors.As(err, &got))
	assert.Equal(t, Handle(0xbeef), got.Handle)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "CL_SUCCESS", Success.String())
	assert.Equal(t, "CL_INVALID_MEM_OBJECT", InvalidMemObject.String())
	assert.Equal(t, "cl_int(-9999)", Status(-9999).String())
}

func TestSeverityText(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("abort")))
	assert.Equal(t, SeverityAbort, s)
	require.NoError(t, s.UnmarshalText([]byte("log")))
	assert.Equal(t, SeverityLog, s)
	assert.Error(t, s.UnmarshalText([]byte("panic")))

	text, err := SeverityAbort.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "abort", string(text))
}

func TestCategoryNames(t *testing.T) {
	assert.Equal(t, "buffers/images", MemObject.String())
	assert.Equal(t, "command_queue", CommandQueue.Key())
	assert.Equal(t, "unknown", Category(99).String())
	assert.True(t, MemObject.SizeBearing())
	assert.False(t, Kernel.SizeBearing())
}

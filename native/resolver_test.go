//go:build cgo && linux

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimwip/oclstat"
)

func TestResolverOpenMissingLibrary(t *testing.T) {
	r := NewResolver("/nonexistent/libOpenCL.so.1")
	err := r.Open()
	require.ErrorIs(t, err, oclstat.ErrLibraryNotFound)
	assert.Contains(t, err.Error(), "/nonexistent/libOpenCL.so.1")

	// The failure is remembered.
	assert.Equal(t, err, r.Open())
	_, err = r.Resolve("clCreateContext")
	assert.ErrorIs(t, err, oclstat.ErrLibraryNotFound)
}

func TestResolverLibc(t *testing.T) {
	r := NewResolver("libc.so.6")
	require.NoError(t, r.Open())

	p, err := r.Resolve("getpid")
	require.NoError(t, err)
	assert.NotNil(t, p)

	again, err := r.Resolve("getpid")
	require.NoError(t, err)
	assert.Equal(t, p, again)

	_, err = r.Resolve("clNoSuchEntryPoint")
	assert.ErrorIs(t, err, oclstat.ErrSymbolNotFound)
}

func TestResolverDefaultPath(t *testing.T) {
	assert.Equal(t, oclstat.DefaultLibrary, NewResolver("").Path())
}

func TestBackendMissingSymbolIsFatal(t *testing.T) {
	var fatal error
	b := NewBackend(NewResolver("libc.so.6"), func(err error) { panic(err) })
	assert.Panics(t, func() {
		defer func() {
			if r := recover(); r != nil {
				fatal, _ = r.(error)
				panic(r)
			}
		}()
		b.RetainContext(0x10)
	})
	assert.ErrorIs(t, fatal, oclstat.ErrSymbolNotFound)
}

package oclstat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRefcount(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	h := Handle(0x1000)

	require.NoError(t, r.Insert(MemObject, h, 64, 0))
	require.NoError(t, r.Retain(MemObject, h))
	require.NoError(t, r.Retain(MemObject, h))

	rec, ok := r.Lookup(MemObject, h)
	require.True(t, ok)
	assert.Equal(t, int64(3), rec.Refs)

	for i := 0; i < 2; i++ {
		zero, err := r.Release(MemObject, h)
		require.NoError(t, err)
		assert.False(t, zero)
	}
	zero, err := r.Release(MemObject, h)
	require.NoError(t, err)
	assert.True(t, zero)

	// Evicted
	_, ok = r.Lookup(MemObject, h)
	assert.False(t, ok)
	assert.Empty(t, r.Snapshot(MemObject))
}

func TestRegistryUnknownHandle(t *testing.T) {
	r := NewRegistry(RegistryOptions{})

	assert.ErrorIs(t, r.Retain(Kernel, 0xdead), ErrUnknownHandle)
	zero, err := r.Release(Kernel, 0xdead)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.False(t, zero)

	// Releasing past zero under eviction looks like an unknown handle.
	require.NoError(t, r.Insert(Kernel, 0x10, 0, 0))
	_, err = r.Release(Kernel, 0x10)
	require.NoError(t, err)
	_, err = r.Release(Kernel, 0x10)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRegistryCategoriesAreIndependent(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	h := Handle(0x2000)

	require.NoError(t, r.Insert(Context, h, 0, 0))
	require.NoError(t, r.Insert(CommandQueue, h, 0, 0))

	zero, err := r.Release(Context, h)
	require.NoError(t, err)
	assert.True(t, zero)

	rec, ok := r.Lookup(CommandQueue, h)
	require.True(t, ok)
	assert.Equal(t, int64(1), rec.Refs)
	assert.ErrorIs(t, r.Retain(Context, h), ErrUnknownHandle)
}

func TestRegistryTombstones(t *testing.T) {
	r := NewRegistry(RegistryOptions{Retention: RetainTombstone})
	h := Handle(0x3000)

	require.NoError(t, r.Insert(Program, h, 0, 0))
	zero, err := r.Release(Program, h)
	require.NoError(t, err)
	require.True(t, zero)

	rec, ok := r.Lookup(Program, h)
	require.True(t, ok)
	assert.Equal(t, int64(0), rec.Refs)
	assert.False(t, rec.Alive())

	assert.ErrorIs(t, r.Retain(Program, h), ErrReleasedHandle)
	_, err = r.Release(Program, h)
	assert.ErrorIs(t, err, ErrReleasedHandle)
	assert.ErrorIs(t, r.Retain(Program, 0x9999), ErrUnknownHandle)

	st := r.Stats()[Program]
	assert.Equal(t, 0, st.Alive)
	assert.Equal(t, 1, st.Tombstones)
	assert.Len(t, r.Snapshot(Program), 1)

	// The implementation reusing the address revives the record.
	require.NoError(t, r.Insert(Program, h, 0, 0))
	st = r.Stats()[Program]
	assert.Equal(t, 1, st.Alive)
	assert.Equal(t, 0, st.Tombstones)
	assert.Equal(t, uint64(2), st.Created)
}

func TestRegistryTombstoneLimit(t *testing.T) {
	r := NewRegistry(RegistryOptions{Retention: RetainTombstone, TombstoneLimit: 2})

	for _, h := range []Handle{0x10, 0x20, 0x30} {
		require.NoError(t, r.Insert(Sampler, h, 0, 0))
		_, err := r.Release(Sampler, h)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, r.Stats()[Sampler].Tombstones)
	assert.ErrorIs(t, r.Retain(Sampler, 0x10), ErrUnknownHandle)
	assert.ErrorIs(t, r.Retain(Sampler, 0x30), ErrReleasedHandle)
}

func TestRegistryDuplicateInsert(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	h := Handle(0x4000)

	require.NoError(t, r.Insert(MemObject, h, 100, 0))
	require.NoError(t, r.Retain(MemObject, h))

	err := r.Insert(MemObject, h, 200, 0)
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	rec, ok := r.Lookup(MemObject, h)
	require.True(t, ok)
	assert.Equal(t, int64(1), rec.Refs)
	assert.Equal(t, uint64(200), rec.Size)
	assert.Equal(t, uint64(2), r.Stats()[MemObject].Created)
}

func TestRegistryReusedAddressBeforePendingRelease(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	h := Handle(0x5000)

	// A creates h. A's real release frees h, and B's create gets the same
	// address before A's release reaches the registry.
	require.NoError(t, r.Insert(MemObject, h, 100, 0))
	assert.ErrorIs(t, r.Insert(MemObject, h, 300, 0), ErrDuplicateHandle)
	zero, err := r.Release(MemObject, h)
	require.NoError(t, err)
	assert.True(t, zero)

	// B's object is gone from the registry, and B's release is unknown.
	assert.Zero(t, r.Stats()[MemObject].Alive)
	_, err = r.Release(MemObject, h)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRegistrySizeAccounting(t *testing.T) {
	r := NewRegistry(RegistryOptions{})

	require.NoError(t, r.Insert(MemObject, 0x10, 1024, 0))
	require.NoError(t, r.Insert(MemObject, 0x20, 300, FlagImage))
	require.NoError(t, r.Insert(MemObject, 0x30, 512, FlagAlias))
	require.NoError(t, r.Insert(Context, 0x40, 99, FlagImage))

	rec, ok := r.Lookup(Context, 0x40)
	require.True(t, ok)
	assert.Zero(t, rec.Size)
	assert.Zero(t, rec.Flags)

	stats := r.Stats()
	assert.Equal(t, 3, stats[MemObject].Alive)
	assert.Equal(t, uint64(1324), stats[MemObject].Bytes)
	assert.Equal(t, uint64(300), stats[MemObject].EstimatedBytes)
	assert.Zero(t, stats[Context].Bytes)

	_, err := r.Release(MemObject, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), r.Stats()[MemObject].Bytes)
}

func TestRegistryStatsOrder(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	stats := r.Stats()
	require.Len(t, stats, len(Categories))
	for i, c := range Categories {
		assert.Equal(t, c, stats[i].Category)
	}
}

func TestRegistryRecentViolations(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(RegistryOptions{RecentViolations: 2})

	for i := 0; i < 3; i++ {
		r.NoteViolation(Violation{
			Category: MemObject,
			Op:       OpRelease,
			Handle:   Handle(0x100 + i),
			Err:      ErrUnknownHandle,
			Time:     base.Add(time.Duration(i) * time.Second),
		})
	}

	recent := r.RecentViolations()
	require.Len(t, recent, 2)
	assert.Equal(t, Handle(0x101), recent[0].Handle)
	assert.Equal(t, Handle(0x102), recent[1].Handle)
	assert.Equal(t, uint64(3), r.Stats()[MemObject].Violations)
}

func TestRegistryNoRecentViolations(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	r.NoteViolation(Violation{Category: Kernel, Op: OpRetain, Err: ErrUnknownHandle})
	assert.Empty(t, r.RecentViolations())
	assert.Equal(t, uint64(1), r.Stats()[Kernel].Violations)
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	const workers, perWorker = 8, 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				h := Handle((w*perWorker + i + 1) * 0x10)
				assert.NoError(t, r.Insert(MemObject, h, 8, 0))
				assert.NoError(t, r.Retain(MemObject, h))
				_, err := r.Release(MemObject, h)
				assert.NoError(t, err)
				_, err = r.Release(MemObject, h)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	st := r.Stats()[MemObject]
	assert.Equal(t, 0, st.Alive)
	assert.Equal(t, uint64(workers*perWorker), st.Created)
	assert.Zero(t, st.Bytes)
}

func TestRegistryInvalidCategory(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	assert.Panics(t, func() { _ = r.Insert(Category(42), 0x10, 0, 0) })
}

func TestRetentionText(t *testing.T) {
	var r Retention
	require.NoError(t, r.UnmarshalText([]byte("tombstone")))
	assert.Equal(t, RetainTombstone, r)
	require.NoError(t, r.UnmarshalText([]byte("")))
	assert.Equal(t, RetainEvict, r)
	assert.Error(t, r.UnmarshalText([]byte("forever")))

	text, err := RetainTombstone.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "tombstone", string(text))
}

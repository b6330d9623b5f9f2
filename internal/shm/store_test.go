package shm

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// fakeOS wraps System and can fail a chosen step.
type fakeOS struct {
	System
	failCreate   error
	failTruncate error
	failSeal     error
	failMmap     error

	closed   []int
	unmapped int
}

func (f *fakeOS) MemfdCreate(name string, flags int) (int, error) {
	if f.failCreate != nil {
		return -1, f.failCreate
	}
	return f.System.MemfdCreate(name, flags)
}

func (f *fakeOS) Ftruncate(fd int, size int64) error {
	if f.failTruncate != nil {
		return f.failTruncate
	}
	return f.System.Ftruncate(fd, size)
}

func (f *fakeOS) AddSeals(fd int, seals int) error {
	if f.failSeal != nil {
		return f.failSeal
	}
	return f.System.AddSeals(fd, seals)
}

func (f *fakeOS) Mmap(fd int, size int) ([]byte, error) {
	if f.failMmap != nil {
		return nil, f.failMmap
	}
	return f.System.Mmap(fd, size)
}

func (f *fakeOS) Munmap(b []byte) error {
	f.unmapped++
	return f.System.Munmap(b)
}

func (f *fakeOS) Close(fd int) error {
	f.closed = append(f.closed, fd)
	return f.System.Close(fd)
}

func TestCreateMapsExactSize(t *testing.T) {
	store, err := Create(nil, "shm-test", 600*4*500)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, 1200000, store.Size())
	assert.Len(t, store.Bytes(), 1200000)

	var st unix.Stat_t
	require.NoError(t, unix.Fstat(store.FD(), &st))
	assert.Equal(t, int64(1200000), st.Size)
}

func TestCreateIsSealed(t *testing.T) {
	store, err := Create(nil, "shm-test", 4096)
	require.NoError(t, err)
	defer store.Close()

	if !store.Sealed() {
		t.Skip("kernel refused seals")
	}
	err = unix.Ftruncate(store.FD(), 8192)
	assert.Error(t, err, "sealed file must not grow")
}

func TestCreateHasNoPath(t *testing.T) {
	store, err := Create(nil, "shm-test", 4096)
	require.NoError(t, err)
	defer store.Close()

	target, err := os.Readlink(filepath.Join("/proc/self/fd", strconv.Itoa(store.FD())))
	if err != nil {
		t.Skip("no /proc")
	}
	assert.Contains(t, target, "memfd:")
}

func TestMappingOutlivesDescriptor(t *testing.T) {
	store, err := Create(nil, "shm-test", 16)
	require.NoError(t, err)
	defer store.Unmap()

	require.NoError(t, store.CloseFD())
	assert.Equal(t, -1, store.FD())

	store.Bytes()[0] = 0xAB
	assert.Equal(t, byte(0xAB), store.Bytes()[0])
}

func TestCloseIsIdempotent(t *testing.T) {
	sys := &fakeOS{}
	store, err := Create(sys, "shm-test", 64)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
	require.NoError(t, store.CloseFD())

	assert.Len(t, sys.closed, 1, "descriptor closed exactly once")
	assert.Equal(t, 1, sys.unmapped)
	assert.Nil(t, store.Bytes())
}

func TestCreateFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		sys       *fakeOS
		op        string
		wantClose int
	}{
		{"memfd", &fakeOS{failCreate: unix.EMFILE}, OpCreate, 0},
		{"truncate", &fakeOS{failTruncate: unix.ENOSPC}, OpTruncate, 1},
		{"mmap", &fakeOS{failMmap: boom}, OpMmap, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Create(tt.sys, "shm-test", 1200000)
			assert.Nil(t, store)

			var serr *Error
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, tt.op, serr.Op)
			assert.Equal(t, 1200000, serr.Size)
			assert.Contains(t, err.Error(), "1200000 B")
			assert.Len(t, tt.sys.closed, tt.wantClose)
			assert.Zero(t, tt.sys.unmapped)
		})
	}
}

func TestCreateSealFailureIsNotFatal(t *testing.T) {
	sys := &fakeOS{failSeal: unix.EINVAL}
	store, err := Create(sys, "shm-test", 64)
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.Sealed())
	assert.Len(t, store.Bytes(), 64)
}

func TestCreateRejectsBadSize(t *testing.T) {
	for _, size := range []int{0, -4} {
		_, err := Create(&fakeOS{}, "shm-test", size)
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

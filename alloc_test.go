package heapstack

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	a int64
	b int32
	c int16
	d int8
}

func TestAllocateAligned(t *testing.T) {
	a := newTestArena(t, WithBlockCapacity(1024))

	a.MustAllocate(3)
	for _, align := range []int{1, 2, 4, 8, 16} {
		b, err := a.AllocateAligned(5, align)
		require.NoError(t, err)
		assert.Len(t, b, 5)
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
		assert.Zero(t, addr%uintptr(align), "align %d", align)
	}

	// Padding is part of the stored bytes.
	assert.Equal(t, a.BytesStored(), int64(len(a.Flatten())))

	for _, align := range []int{0, -8, 3, 12} {
		_, err := a.AllocateAligned(5, align)
		require.ErrorIs(t, err, ErrBadAlignment, "align %d", align)
	}

	_, err := a.AllocateAligned(1024, 8)
	require.ErrorIs(t, err, ErrOversizedRequest)
}

func TestAllocateAlignedNewBlock(t *testing.T) {
	a := newTestArena(t, WithBlockCapacity(64), WithMaxBlocks(1))
	a.MustAllocate(60)
	before := a.Stats()

	_, err := a.AllocateAligned(8, 8)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, before, a.Stats())
}

func TestAlloc(t *testing.T) {
	a := newTestArena(t, WithBlockCapacity(1024))

	ptr, err := Alloc[int](a)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, 0, *ptr)

	s, err := Alloc[testStruct](a)
	require.NoError(t, err)
	assert.Equal(t, testStruct{}, *s)
	assert.Zero(t, uintptr(unsafe.Pointer(s))%unsafe.Alignof(*s))

	// Verify we can write to allocated memory
	*ptr = 42
	s.a = 100
	assert.Equal(t, 42, *ptr)
	assert.Equal(t, int64(100), s.a)
}

func TestAllocUninitialized(t *testing.T) {
	a := newTestArena(t)
	ptr, err := AllocUninitialized[uint32](a)
	require.NoError(t, err)

	// Contents are undefined, but the memory must be writable.
	*ptr = 123
	assert.Equal(t, uint32(123), *ptr)
}

func TestAllocZeroSize(t *testing.T) {
	a := newTestArena(t)
	p, err := Alloc[struct{}](a)
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, 0, a.BlockCount())
}

func TestAllocSlice(t *testing.T) {
	a := newTestArena(t, WithBlockCapacity(1024))

	slice, err := AllocSlice[int](a, 10)
	require.NoError(t, err)
	assert.Len(t, slice, 10)
	assert.Equal(t, 10, cap(slice))

	empty, err := AllocSlice[int](a, 0)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = AllocSlice[int](a, -1)
	require.ErrorIs(t, err, ErrNegativeSize)

	_, err = AllocSlice[int64](a, 128)
	require.ErrorIs(t, err, ErrOversizedRequest)

	for i := range slice {
		slice[i] = i * 2
	}
	for i := range slice {
		assert.Equal(t, i*2, slice[i])
	}
}

func TestAllocSliceZeroed(t *testing.T) {
	a := newTestArena(t, WithBlockCapacity(256))

	slice, err := AllocSliceZeroed[int32](a, 5)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 0, 0, 0, 0}, slice)
}

func TestAllocRejectsPointerTypes(t *testing.T) {
	a := newTestArena(t)

	type withString struct {
		id   int
		name string
	}
	type nested struct {
		inner [2]struct{ p *int }
	}

	_, err := Alloc[*int](a)
	require.ErrorIs(t, err, ErrPointerType)
	_, err = Alloc[withString](a)
	require.ErrorIs(t, err, ErrPointerType)
	_, err = Alloc[nested](a)
	require.ErrorIs(t, err, ErrPointerType)
	_, err = AllocSlice[[]byte](a, 4)
	require.ErrorIs(t, err, ErrPointerType)
	_, err = AllocSlice[map[int]int](a, 1)
	require.ErrorIs(t, err, ErrPointerType)

	assert.Equal(t, 0, a.BlockCount(), "rejected types must not allocate")

	_, err = Alloc[[0]*int](a)
	require.NoError(t, err, "zero length arrays hold no pointers")
}

func TestHasPointers(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"int", int(0), false},
		{"float", float64(0), false},
		{"complex", complex64(0), false},
		{"array", [4]uint16{}, false},
		{"struct", testStruct{}, false},
		{"string", "", true},
		{"slice", []int{}, true},
		{"pointer", new(int), true},
		{"func", func() {}, true},
		{"chan", make(chan int), true},
		{"interface struct", struct{ v any }{}, true},
		{"unsafe pointer", unsafe.Pointer(nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasPointers(reflect.TypeOf(tt.v)))
		})
	}
}

func TestMemoryCorruption(t *testing.T) {
	a := newTestArena(t, WithBlockCapacity(1024))
	defer a.Release()

	// Allocate multiple objects and verify they don't overlap
	ptrs := make([]*[64]byte, 100)
	for i := range ptrs {
		p, err := Alloc[[64]byte](a)
		require.NoError(t, err)
		ptrs[i] = p
		for j := range ptrs[i] {
			ptrs[i][j] = byte(i)
		}
	}

	for i, ptr := range ptrs {
		for j, b := range ptr {
			require.Equal(t, byte(i), b, "corruption at ptr[%d][%d]", i, j)
		}
	}
}

func BenchmarkAlloc(b *testing.B) {
	a := newTestArena(b, WithPages(256))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Alloc[testStruct](a); err != nil {
			b.Fatal(err)
		}
		if i%1000 == 999 {
			a.Reset()
		}
	}
}

func BenchmarkAllocSlice(b *testing.B) {
	a := newTestArena(b, WithPages(256))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := AllocSlice[int64](a, 32); err != nil {
			b.Fatal(err)
		}
		if i%1000 == 999 {
			a.Reset()
		}
	}
}

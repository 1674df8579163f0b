package heapstack

import (
	"math"
	"reflect"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

// AllocateAligned is like Allocate but the returned slice starts at an
// address that is a multiple of align. Padding bytes in front of the slice
// are claimed from the block and counted by BytesStored, so they also show
// up in Flatten output.
func (a *Arena) AllocateAligned(size, align int) ([]byte, error) {
	if err := a.check(size); err != nil {
		return nil, err
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, errors.Wrapf(ErrBadAlignment, "align %d", align)
	}

	if n := len(a.blocks); n > 0 {
		c := &a.blocks[n-1]
		pad := padding(c.buf, c.used, align)
		if c.used+pad+size < a.capacity {
			return a.claim(c, pad, size), nil
		}
	}

	// The block is only linked in once the request is known to fit, so a
	// failure leaves the chain untouched.
	if err := a.canGrow(); err != nil {
		return nil, err
	}
	buf := make([]byte, a.capacity)
	pad := padding(buf, 0, align)
	if pad+size >= a.capacity {
		a.metrics.reject(reasonOversized)
		return nil, errors.Wrapf(ErrOversizedRequest,
			"size %d with %d bytes alignment padding, block capacity %d", size, pad, a.capacity)
	}
	return a.claim(a.push(buf), pad, size), nil
}

// padding returns the bytes needed to align &buf[off] to align.
func padding(buf []byte, off, align int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf))) + uintptr(off)
	return int(-addr & uintptr(align-1))
}

// Alloc returns a pointer to a zeroed T stored inside the arena.
// The returned pointer is valid until the arena is reset or released.
// T must not contain Go pointers.
func Alloc[T any](a *Arena) (*T, error) {
	p, err := AllocUninitialized[T](a)
	if err != nil {
		return nil, err
	}
	var zero T
	*p = zero
	return p, nil
}

// AllocUninitialized returns a *T located in the arena without zeroing memory.
// This is faster than Alloc but the memory contents are undefined.
func AllocUninitialized[T any](a *Arena) (*T, error) {
	var zero T
	if err := checkPlain[T](); err != nil {
		return nil, err
	}
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), nil
	}
	b, err := a.AllocateAligned(size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// AllocSlice allocates a slice of n elements of type T inside the arena.
// The slice elements are not initialized. Returns nil if n == 0.
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrNegativeSize, "count %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	var zero T
	if err := checkPlain[T](); err != nil {
		return nil, err
	}
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 {
		return make([]T, n), nil
	}
	if n > math.MaxInt/elemSize {
		return nil, errors.Wrapf(ErrOversizedRequest, "%d elements of %d bytes", n, elemSize)
	}
	b, err := a.AllocateAligned(elemSize*n, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// AllocSliceZeroed allocates a slice of n elements of type T with zeroed memory.
func AllocSliceZeroed[T any](a *Arena, n int) ([]T, error) {
	s, err := AllocSlice[T](a, n)
	if err != nil {
		return nil, err
	}
	clear(s)
	return s, nil
}

var plainTypes sync.Map // reflect.Type -> bool

// checkPlain rejects types holding Go pointers: arena memory is not
// scanned by the garbage collector and nothing in it is ever finalized.
func checkPlain[T any]() error {
	t := reflect.TypeFor[T]()
	plain, ok := plainTypes.Load(t)
	if !ok {
		plain = !hasPointers(t)
		plainTypes.Store(t, plain)
	}
	if !plain.(bool) {
		return errors.Wrapf(ErrPointerType, "%v", t)
	}
	return nil
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

package heapstack

import "github.com/pkg/errors"

var (
	// ErrOversizedRequest is returned when a request can never fit a single block.
	ErrOversizedRequest = errors.New("heapstack: request too large for block")
	// ErrNegativeSize is returned for negative sizes or element counts.
	ErrNegativeSize = errors.New("heapstack: negative size")
	// ErrNoBlock is returned by CurrentBlock before the first allocation.
	ErrNoBlock = errors.New("heapstack: no block allocated yet")
	// ErrExhausted is returned when the block limit has been reached.
	ErrExhausted = errors.New("heapstack: block limit reached")
	// ErrReleased is returned on allocation after Release.
	ErrReleased = errors.New("heapstack: use after Release()")

	ErrInvalidCapacity = errors.New("heapstack: block capacity must be positive")
	ErrInvalidConfig   = errors.New("heapstack: invalid configuration")
	ErrBadAlignment    = errors.New("heapstack: alignment must be a positive power of two")
	ErrPointerType     = errors.New("heapstack: type contains pointers")
)

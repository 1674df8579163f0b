package heapstack

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// block is a single fixed-capacity buffer within an arena.
type block struct {
	buf  []byte // backing memory, len == arena capacity
	used int    // bytes claimed from buf
}

// Arena is a sequential bump allocator over a chain of blocks.
// Not goroutine-safe: Allocate must not run concurrently with any other
// method.
type Arena struct {
	blocks    []block // head is blocks[0], tail is the last element
	capacity  int
	stored    int64
	maxBlocks int
	released  bool

	log     logrus.FieldLogger
	metrics *Metrics
}

// New creates an empty Arena. No block is allocated until the first
// Allocate call.
func New(opts ...Option) (*Arena, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d", cfg.capacity)
	}
	return &Arena{
		capacity:  cfg.capacity,
		maxBlocks: cfg.maxBlocks,
		log:       cfg.log,
		metrics:   cfg.metrics,
	}, nil
}

// Allocate returns a slice of exactly size bytes carved from the tail
// block. The slice's capacity equals its length, it never moves, and it
// stays valid until Reset or Release. Contents are not guaranteed to be
// zeroed.
func (a *Arena) Allocate(size int) ([]byte, error) {
	if err := a.check(size); err != nil {
		return nil, err
	}

	// Fast path: room left in the tail
	if n := len(a.blocks); n > 0 {
		c := &a.blocks[n-1]
		if c.used+size < a.capacity {
			return a.claim(c, 0, size), nil
		}
	}

	c, err := a.grow()
	if err != nil {
		return nil, err
	}
	return a.claim(c, 0, size), nil
}

// MustAllocate is like Allocate but panics on error.
func (a *Arena) MustAllocate(size int) []byte {
	b, err := a.Allocate(size)
	if err != nil {
		panic(err)
	}
	return b
}

// CurrentBlock returns the data region of the tail block, from its start
// up to the bytes claimed so far.
func (a *Arena) CurrentBlock() ([]byte, error) {
	if len(a.blocks) == 0 {
		return nil, ErrNoBlock
	}
	c := &a.blocks[len(a.blocks)-1]
	return c.buf[:c.used:c.used], nil
}

// Flatten returns a fresh buffer holding every stored byte in allocation
// order. The buffer is owned by the caller and outlives the arena.
func (a *Arena) Flatten() []byte {
	buf := make([]byte, 0, a.stored)
	for i := range a.blocks {
		buf = append(buf, a.blocks[i].buf[:a.blocks[i].used]...)
	}
	return buf
}

// FlattenLen is Flatten that also reports the buffer length.
func (a *Arena) FlattenLen() ([]byte, int64) {
	return a.Flatten(), a.stored
}

// WriteTo streams the stored bytes to w in allocation order, without the
// intermediate copy Flatten makes.
func (a *Arena) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range a.blocks {
		c := &a.blocks[i]
		if c.used == 0 {
			continue
		}
		n, err := w.Write(c.buf[:c.used])
		total += int64(n)
		if err != nil {
			return total, errors.Wrapf(err, "write block %d", i)
		}
		if n != c.used {
			return total, errors.Wrapf(io.ErrShortWrite, "write block %d", i)
		}
	}
	return total, nil
}

// Reset drops every block and returns the arena to its empty state.
// Slices handed out earlier must no longer be used.
func (a *Arena) Reset() {
	a.log.WithFields(logrus.Fields{
		"blocks":       len(a.blocks),
		"bytes_stored": a.stored,
	}).Debug("reset arena")
	a.blocks = nil
	a.stored = 0
	a.metrics.observe(a)
}

// Release drops every block and makes the arena unusable. Allocations
// after Release fail with ErrReleased. Release may be called more than
// once.
func (a *Arena) Release() {
	if a.released {
		return
	}
	a.log.WithFields(logrus.Fields{
		"blocks":       len(a.blocks),
		"bytes_stored": a.stored,
	}).Debug("release arena")
	a.blocks = nil
	a.stored = 0
	a.released = true
	a.metrics.observe(a)
}

// check validates a request before anything is mutated.
func (a *Arena) check(size int) error {
	switch {
	case a.released:
		return ErrReleased
	case size < 0:
		a.metrics.reject(reasonNegative)
		return errors.Wrapf(ErrNegativeSize, "size %d", size)
	case size >= a.capacity:
		a.log.WithFields(logrus.Fields{
			"size":     size,
			"capacity": a.capacity,
		}).Warn("rejected oversized allocation")
		a.metrics.reject(reasonOversized)
		return errors.Wrapf(ErrOversizedRequest, "size %d, block capacity %d", size, a.capacity)
	}
	return nil
}

// claim hands out size bytes from c after pad bytes of padding.
func (a *Arena) claim(c *block, pad, size int) []byte {
	start := c.used + pad
	end := start + size
	c.used = end
	a.stored += int64(pad + size)
	a.metrics.allocated(a)
	return c.buf[start:end:end]
}

// grow appends a new block and returns it as the tail.
func (a *Arena) grow() (*block, error) {
	if err := a.canGrow(); err != nil {
		return nil, err
	}
	return a.push(make([]byte, a.capacity)), nil
}

// canGrow reports ErrExhausted once the block limit is reached.
func (a *Arena) canGrow() error {
	if a.maxBlocks > 0 && len(a.blocks) >= a.maxBlocks {
		a.log.WithFields(logrus.Fields{
			"blocks":     len(a.blocks),
			"max_blocks": a.maxBlocks,
		}).Warn("block limit reached")
		a.metrics.reject(reasonExhausted)
		return errors.Wrapf(ErrExhausted, "%d blocks", len(a.blocks))
	}
	return nil
}

// push links buf in as the new tail block.
func (a *Arena) push(buf []byte) *block {
	a.blocks = append(a.blocks, block{buf: buf})
	a.log.WithFields(logrus.Fields{
		"block":    len(a.blocks),
		"capacity": a.capacity,
	}).Debug("allocated new block")
	a.metrics.observe(a)
	return &a.blocks[len(a.blocks)-1]
}

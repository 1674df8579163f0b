package heapstack

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// BytesStored returns the total number of bytes handed out to callers,
// including alignment padding claimed by AllocateAligned.
func (a *Arena) BytesStored() int64 {
	return a.stored
}

// BytesReserved returns the raw capacity of all blocks, unused tail
// slack included.
func (a *Arena) BytesReserved() int64 {
	return int64(len(a.blocks)) * int64(a.capacity)
}

// BlockCount returns the number of blocks created.
func (a *Arena) BlockCount() int {
	return len(a.blocks)
}

// BlockCapacity returns the usable bytes per block.
func (a *Arena) BlockCapacity() int {
	return a.capacity
}

// Available returns the largest request the tail block can still serve
// without opening a new block. Returns 0 if there is no tail.
func (a *Arena) Available() int {
	if len(a.blocks) == 0 {
		return 0
	}
	return a.capacity - a.blocks[len(a.blocks)-1].used - 1
}

// Utilization returns the ratio of bytes stored to bytes reserved (0.0 to 1.0).
// Returns 0.0 if the arena has no blocks.
func (a *Arena) Utilization() float64 {
	reserved := a.BytesReserved()
	if reserved == 0 {
		return 0
	}
	return float64(a.stored) / float64(reserved)
}

// Stats returns a snapshot of arena statistics.
func (a *Arena) Stats() ArenaStats {
	return ArenaStats{
		BytesStored:   a.BytesStored(),
		BytesReserved: a.BytesReserved(),
		Blocks:        a.BlockCount(),
		BlockCapacity: a.BlockCapacity(),
		Utilization:   a.Utilization(),
	}
}

// ArenaStats contains statistical information about an arena.
type ArenaStats struct {
	BytesStored   int64   // Bytes handed out to callers
	BytesReserved int64   // Blocks * BlockCapacity
	Blocks        int     // Number of blocks
	BlockCapacity int     // Usable bytes per block
	Utilization   float64 // Ratio of stored to reserved (0.0-1.0)
}

func (s ArenaStats) String() string {
	return fmt.Sprintf("stored %s of %s in %d blocks of %s (%.2f%%)",
		humanize.Bytes(uint64(s.BytesStored)),
		humanize.Bytes(uint64(s.BytesReserved)),
		s.Blocks,
		humanize.Bytes(uint64(s.BlockCapacity)),
		s.Utilization*100)
}

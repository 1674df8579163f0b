// Package heapstack implements a region allocator (memory arena) for Go.
//
// # Overview
//
// A heapstack hands out many small, variable sized byte ranges from a chain
// of large fixed-capacity blocks, and drops all of them at once. It works a
// little like a stack: a block is used up sequentially until a request no
// longer fits, at which point another block is appended to the chain. This
// suits workloads such as:
//
//   - Parse trees and document structures built from many tiny nodes
//   - Streaming records of unknown total size into memory
//   - Short-term scratch storage with batch cleanup
//
// # Basic Usage
//
//	a, err := heapstack.New() // 4 MiB blocks
//	if err != nil {
//		return err
//	}
//	defer a.Release()
//
//	buf, err := a.Allocate(128)
//
//	// Typed, pointer-free values
//	p, err := heapstack.Alloc[Point](a)
//
//	// Everything stored so far, in allocation order
//	data := a.Flatten()
//
// # Block Sizes
//
// Blocks are configured in 4 KiB pages with WithPages (default 1024). A
// fixed header overhead of HeaderSize bytes is charged against each nominal
// block, so the usable capacity is pages*PageSize - HeaderSize. A request
// must be strictly smaller than the usable capacity; larger requests fail
// with ErrOversizedRequest and are never split across blocks. A request
// that would exactly fill the tail's remaining space opens a new block.
//
// # Thread Safety
//
// An Arena has no internal locking. Allocate must not run concurrently with
// any other method. Read-only queries may run concurrently with each other.
//
// # Teardown
//
// Release and Reset drop the raw blocks only. Nothing runs on the stored
// bytes, so only plain data (no Go pointers, nothing needing cleanup) should
// live in an arena. The typed helpers enforce this and reject pointer
// bearing types with ErrPointerType.
//
// # Statistics
//
//	st := a.Stats()
//	fmt.Println(st) // stored 4.1 kB of 4.2 MB in 1 blocks of 4.2 MB (0.10%)
//
// Prometheus instruments can be attached with WithMetrics and NewMetrics.
package heapstack

package main

import (
	"fmt"
	"unsafe"

	"github.com/orizon-lang/rbheap"
)

// scenario is one of the concrete walkthroughs from SPEC_FULL.md §8
// (S1–S6). Each gets a fresh Allocator so scenarios cannot interfere with
// one another.
type scenario struct {
	name     string
	describe string
	run      func(a *rbheap.Allocator) error
}

var scenarios = []scenario{
	{"S1", "allocate 10 4-byte ints, write i*i into each, read back, free.", scenarioS1},
	{"S2", "allocate 32 bytes, write and read back a 12-byte string.", scenarioS2},
	{"S3S4", "grow a 10-int array to 20 via Reallocate, then shrink it to 5.", scenarioS3S4},
	{"S5", "free two of five 16-byte blocks, confirm a sixth reuses one.", scenarioS5},
	{"S6", "churn a dozen varied small blocks, validating the index throughout.", scenarioS6},
}

func asInts(p unsafe.Pointer, n int) []int32 {
	return unsafe.Slice((*int32)(p), n)
}

// S1: allocate 10 4-byte integers, write i*i into each, read back.
func scenarioS1(a *rbheap.Allocator) error {
	p, err := a.Allocate(10 * unsafe.Sizeof(int32(0)))
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}

	ints := asInts(p, 10)
	for i := range ints {
		ints[i] = int32(i * i)
	}

	if ints[0] != 0 {
		return fmt.Errorf("slot 0: got %d want 0", ints[0])
	}

	if ints[9] != 81 {
		return fmt.Errorf("slot 9: got %d want 81", ints[9])
	}

	a.Free(p)

	return nil
}

// S2: allocate a 32-byte block, write a 12-byte string, read it back.
func scenarioS2(a *rbheap.Allocator) error {
	p, err := a.Allocate(32)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}

	want := []byte("hello-world!")
	dst := unsafe.Slice((*byte)(p), len(want))
	copy(dst, want)

	for i := range want {
		if dst[i] != want[i] {
			return fmt.Errorf("byte %d: got %d want %d", i, dst[i], want[i])
		}
	}

	a.Free(p)

	return nil
}

// S3/S4: grow a 10-int array to 20 via Reallocate, then shrink it to 5,
// confirming the value written before the shrink survives.
func scenarioS3S4(a *rbheap.Allocator) error {
	elt := unsafe.Sizeof(int32(0))

	p, err := a.Allocate(10 * elt)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}

	for i, v := range asInts(p, 10) {
		_ = v

		asInts(p, 10)[i] = int32(i * i)
	}

	grown, err := a.Reallocate(p, 20*elt)
	if err != nil {
		return fmt.Errorf("reallocate grow: %w", err)
	}

	ints := asInts(grown, 20)
	for i := 10; i < 20; i++ {
		ints[i] = int32(i * i)
	}

	if ints[15] != 225 {
		return fmt.Errorf("S3 slot 15: got %d want 225", ints[15])
	}

	if ints[19] != 361 {
		return fmt.Errorf("S3 slot 19: got %d want 361", ints[19])
	}

	shrunk, err := a.Reallocate(grown, 5*elt)
	if err != nil {
		return fmt.Errorf("reallocate shrink: %w", err)
	}

	if shrunk != grown {
		return fmt.Errorf("shrinking realloc should return the same pointer")
	}

	if v := asInts(shrunk, 5)[4]; v != 16 {
		return fmt.Errorf("S4 slot 4: got %d want 16", v)
	}

	a.Free(shrunk)

	return nil
}

// S5: five 16-byte blocks, free two of them, allocate a sixth and check it
// landed on one of the freed payloads.
func scenarioS5(a *rbheap.Allocator) error {
	var blocks [5]unsafe.Pointer

	for i := range blocks {
		p, err := a.Allocate(16)
		if err != nil {
			return fmt.Errorf("allocate B%d: %w", i, err)
		}

		blocks[i] = p
	}

	a.Free(blocks[1])
	a.Free(blocks[3])

	x, err := a.Allocate(16)
	if err != nil {
		return fmt.Errorf("allocate X: %w", err)
	}

	if x != blocks[1] && x != blocks[3] {
		return fmt.Errorf("X landed at %p, want B1 (%p) or B3 (%p)", x, blocks[1], blocks[3])
	}

	a.Free(x)
	a.Free(blocks[0])
	a.Free(blocks[2])
	a.Free(blocks[4])

	return nil
}

// S6: allocate a dozen varied small blocks, validating the free-region
// index after each Free made inside the loop, and once more after the
// remaining live blocks have all been freed.
func scenarioS6(a *rbheap.Allocator) error {
	sizes := []uintptr{8, 24, 16, 40, 8, 64, 32, 16, 8, 128, 24, 16}

	var live []unsafe.Pointer

	for i, s := range sizes {
		p, err := a.Allocate(s)
		if err != nil {
			return fmt.Errorf("allocate %d (size %d): %w", i, s, err)
		}

		live = append(live, p)

		if i%2 == 0 && len(live) > 0 {
			a.Free(live[0])
			live = live[1:]

			if err := a.ValidateIndex(); err != nil {
				return fmt.Errorf("index invalid after step %d: %w", i, err)
			}
		}
	}

	for _, p := range live {
		a.Free(p)
	}

	return a.ValidateIndex()
}

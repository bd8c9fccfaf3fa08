package rbheap_test

import (
	"testing"
	"unsafe"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/orizon-lang/rbheap"
)

func TestAllocateAndFree(t *testing.T) {
	Convey("Given a fresh Allocator", t, func() {
		a, err := rbheap.New(0)
		So(err, ShouldBeNil)
		Reset(func() { a.Close() })

		Convey("When allocating ten 4-byte ints", func() {
			p, err := a.Allocate(10 * unsafe.Sizeof(int32(0)))
			So(err, ShouldBeNil)
			So(p, ShouldNotBeNil)

			ints := unsafe.Slice((*int32)(p), 10)
			for i := range ints {
				ints[i] = int32(i * i)
			}

			Convey("Then the values read back unchanged", func() {
				So(ints[0], ShouldEqual, 0)
				So(ints[9], ShouldEqual, 81)
			})

			Convey("And freeing it grows the free-region index by one", func() {
				before := a.FreeIndexSize()
				a.Free(p)
				So(a.FreeIndexSize(), ShouldEqual, before+1)
			})
		})

		Convey("When requesting zero bytes", func() {
			p, err := a.Allocate(0)

			Convey("Then it fails with a bad request", func() {
				So(p, ShouldBeNil)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestReallocateGrowAndShrink(t *testing.T) {
	Convey("Given an allocator holding a 10-int array", t, func() {
		a, err := rbheap.New(0)
		So(err, ShouldBeNil)
		Reset(func() { a.Close() })

		elt := unsafe.Sizeof(int32(0))

		p, err := a.Allocate(10 * elt)
		So(err, ShouldBeNil)

		ints := unsafe.Slice((*int32)(p), 10)
		for i := range ints {
			ints[i] = int32(i * i)
		}

		Convey("When growing it to 20 elements", func() {
			grown, err := a.Reallocate(p, 20*elt)
			So(err, ShouldBeNil)
			So(grown, ShouldNotBeNil)

			grownInts := unsafe.Slice((*int32)(grown), 20)

			Convey("Then the original values survive the copy", func() {
				So(grownInts[9], ShouldEqual, 81)
			})

			Convey("When then shrinking it to 5 elements", func() {
				for i := 10; i < 20; i++ {
					grownInts[i] = int32(i * i)
				}

				shrunk, err := a.Reallocate(grown, 5*elt)
				So(err, ShouldBeNil)

				Convey("Then the pointer is unchanged, since shrinks never move", func() {
					So(shrunk, ShouldEqual, grown)
				})
			})
		})

		Convey("When reallocating to size zero", func() {
			before := a.FreeIndexSize()
			result, err := a.Reallocate(p, 0)

			Convey("Then it behaves as Free and returns nil", func() {
				So(err, ShouldBeNil)
				So(result, ShouldBeNil)
				So(a.FreeIndexSize(), ShouldEqual, before+1)
			})
		})
	})
}

func TestZeroAllocate(t *testing.T) {
	Convey("Given a fresh Allocator", t, func() {
		a, err := rbheap.New(0)
		So(err, ShouldBeNil)
		Reset(func() { a.Close() })

		Convey("When zero-allocating 8 elements of 4 bytes", func() {
			p, err := a.ZeroAllocate(8, 4)
			So(err, ShouldBeNil)

			Convey("Then every byte is zeroed", func() {
				bytes := unsafe.Slice((*byte)(p), 32)
				for _, b := range bytes {
					So(b, ShouldEqual, 0)
				}
			})
		})

		Convey("When either argument is zero", func() {
			_, errCount := a.ZeroAllocate(0, 4)
			_, errSize := a.ZeroAllocate(4, 0)

			Convey("Then both calls fail", func() {
				So(errCount, ShouldNotBeNil)
				So(errSize, ShouldNotBeNil)
			})
		})
	})
}

func TestBestFitReusesFreedBlocks(t *testing.T) {
	Convey("Given five live 16-byte blocks with two freed", t, func() {
		a, err := rbheap.New(0)
		So(err, ShouldBeNil)
		Reset(func() { a.Close() })

		var blocks [5]unsafe.Pointer

		for i := range blocks {
			p, err := a.Allocate(16)
			So(err, ShouldBeNil)

			blocks[i] = p
		}

		a.Free(blocks[1])
		a.Free(blocks[3])

		Convey("When allocating a sixth 16-byte block", func() {
			x, err := a.Allocate(16)
			So(err, ShouldBeNil)

			Convey("Then it reuses one of the freed payloads instead of growing", func() {
				So(x == blocks[1] || x == blocks[3], ShouldBeTrue)
			})
		})
	})
}

func TestFreeIndexStaysValidUnderChurn(t *testing.T) {
	Convey("Given an allocator processing a mixed workload", t, func() {
		a, err := rbheap.New(0)
		So(err, ShouldBeNil)
		Reset(func() { a.Close() })

		sizes := []uintptr{8, 24, 16, 40, 8, 64, 32, 16, 8, 128, 24, 16}

		var live []unsafe.Pointer

		Convey("When allocating and periodically freeing the oldest block", func() {
			for i, s := range sizes {
				p, err := a.Allocate(s)
				So(err, ShouldBeNil)

				live = append(live, p)

				if i%2 == 0 && len(live) > 0 {
					a.Free(live[0])
					live = live[1:]

					So(a.ValidateIndex(), ShouldBeNil)
				}
			}

			Convey("Then the index remains a valid red-black tree throughout, and after draining it", func() {
				for _, p := range live {
					a.Free(p)
				}

				So(a.ValidateIndex(), ShouldBeNil)
			})
		})
	})
}

//go:build linux || darwin || freebsd || netbsd || openbsd

package heap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unixReservation backs a Source with one anonymous, inaccessible mapping
// reserved up front; committing a range re-maps it PROT_READ|PROT_WRITE as
// the break advances over it, mirroring how a real sbrk/mmap-based
// allocator only pays for the pages it actually uses.
type unixReservation struct {
	data []byte
}

func reserve(span uintptr) (reservation, uintptr, error) {
	data, err := unix.Mmap(-1, 0, int(span), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, 0, fmt.Errorf("mmap PROT_NONE reservation: %w", err)
	}

	base := uintptr(unsafe.Pointer(&data[0]))

	return &unixReservation{data: data}, base, nil
}

func (r *unixReservation) commit(fromOffset, toOffset uintptr) error {
	if toOffset <= fromOffset {
		return nil
	}

	pageFrom := fromOffset &^ (pageSize - 1)
	pageTo := (toOffset + pageSize - 1) &^ (pageSize - 1)

	if pageTo > uintptr(len(r.data)) {
		pageTo = uintptr(len(r.data))
	}

	if pageTo <= pageFrom {
		return nil
	}

	return unix.Mprotect(r.data[pageFrom:pageTo], unix.PROT_READ|unix.PROT_WRITE)
}

func (r *unixReservation) release() error {
	return unix.Munmap(r.data)
}

const pageSize = 4096

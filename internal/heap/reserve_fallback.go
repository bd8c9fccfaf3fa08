//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package heap

import "unsafe"

// fallbackReservation backs a Source on platforms with no mmap/VirtualAlloc
// binding in golang.org/x/sys (e.g. js/wasm): a single Go byte slice stands
// in for the reserved span. There is no notion of committing pages lazily
// here, so commit is a no-op — the whole span is already addressable.
type fallbackReservation struct {
	data []byte
}

func reserve(span uintptr) (reservation, uintptr, error) {
	data := make([]byte, span)
	base := uintptr(unsafe.Pointer(&data[0]))

	return &fallbackReservation{data: data}, base, nil
}

func (r *fallbackReservation) commit(fromOffset, toOffset uintptr) error {
	return nil
}

func (r *fallbackReservation) release() error {
	r.data = nil

	return nil
}

const pageSize = 4096

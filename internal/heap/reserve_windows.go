//go:build windows

package heap

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// windowsReservation backs a Source with one MEM_RESERVE region; committing
// a range calls VirtualAlloc again with MEM_COMMIT over the pages that need
// to become accessible, the Windows analogue of the unix PROT_NONE dance.
type windowsReservation struct {
	base uintptr
	size uintptr
}

func reserve(span uintptr) (reservation, uintptr, error) {
	addr, err := windows.VirtualAlloc(0, span, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, 0, fmt.Errorf("VirtualAlloc MEM_RESERVE: %w", err)
	}

	return &windowsReservation{base: addr, size: span}, addr, nil
}

func (r *windowsReservation) commit(fromOffset, toOffset uintptr) error {
	if toOffset <= fromOffset {
		return nil
	}

	pageFrom := fromOffset &^ (pageSize - 1)
	pageTo := (toOffset + pageSize - 1) &^ (pageSize - 1)

	if pageTo > r.size {
		pageTo = r.size
	}

	if pageTo <= pageFrom {
		return nil
	}

	_, err := windows.VirtualAlloc(r.base+pageFrom, pageTo-pageFrom, windows.MEM_COMMIT, windows.PAGE_READWRITE)

	return err
}

func (r *windowsReservation) release() error {
	return windows.VirtualFree(r.base, 0, windows.MEM_RELEASE)
}

const pageSize = 4096

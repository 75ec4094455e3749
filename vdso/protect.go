// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// pageSize is discovered once; AddressRange alignment is expressed against
// it.
var pageSize = uintptr(unix.Getpagesize())

// pagesCovering returns the page-aligned AddressRange spanning [addr, addr+n),
// the minimal set of whole pages unix.Mprotect must be given to cover a
// write of n bytes starting at addr. Grounded on qrdl-testaroli's
// makeMemWritable, generalized to the rare case where a stub straddles a
// page boundary.
func pagesCovering(addr uintptr, n int) AddressRange {
	start := addr &^ (pageSize - 1)
	end := (addr + uintptr(n) + pageSize - 1) &^ (pageSize - 1)
	return AddressRange{Start: start, End: end}
}

// mprotect changes the protection of r to prot. Grounded on
// blastbao-gomonkey's modifyBinary and qrdl-testaroli's makePageWritable,
// both of which bracket a code-segment write with syscall.Mprotect /
// unix.Mprotect calls of exactly this shape.
func mprotect(r AddressRange, prot int) error {
	page := unsafe.Slice((*byte)(unsafe.Pointer(r.Start)), r.Len())
	if err := unix.Mprotect(page, prot); err != nil {
		return wraperr(ErrProtectFailed, err, "mprotect(%v, %#o)", r, prot)
	}
	return nil
}

// withWritable grants PROT_READ|PROT_WRITE|PROT_EXEC over the pages
// covering [addr, addr+n), runs fn, and restores PROT_READ|PROT_EXEC
// afterwards regardless of how fn returns. This is the single choke point
// through which every stub install/restore write passes, so a page left
// writable after a call is a bug in this function rather than something
// every call site has to remember to guard against.
//
// wrote reports whether fn was ever reached, independent of err: if the
// initial protection change fails, wrote is false and the region is
// untouched (err alone describes that failure). If fn ran, wrote is true
// even when err is non-nil because the trailing protection-restore failed —
// callers need that distinction to know whether bookkeeping for an
// already-applied write is still owed.
func withWritable(addr uintptr, n int, fn func() error) (wrote bool, err error) {
	r := pagesCovering(addr, n)
	if err := mprotect(r, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return false, err
	}
	defer func() {
		err = multierr.Append(err, mprotect(r, unix.PROT_READ|unix.PROT_EXEC))
	}()
	return true, fn()
}

// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"fmt"
	"unsafe"
)

// AddressRange is a half-open interval [Start, End) of process-virtual
// addresses.
type AddressRange struct {
	Start uintptr
	End   uintptr
}

// Len returns the number of bytes covered by r.
func (r AddressRange) Len() int {
	return int(r.End - r.Start)
}

// PageAligned reports whether r starts on a page boundary and spans a
// positive multiple of pageSize bytes.
func (r AddressRange) PageAligned(pageSize uintptr) bool {
	if pageSize == 0 || r.End <= r.Start {
		return false
	}
	span := r.End - r.Start
	return r.Start%pageSize == 0 && span%pageSize == 0
}

func (r AddressRange) String() string {
	return fmt.Sprintf("[%#x, %#x)", r.Start, r.End)
}

// View is a read-only byte window over an AddressRange already mapped into
// this process. The backing memory is owned by the kernel (the vDSO is
// mapped for the lifetime of the process); View only ever borrows it.
//
// View is not itself concurrency-safe to write through — callers that need
// to mutate the region (the patch manager) are responsible for bracketing
// writes with their own protection changes and locking.
type View struct {
	Range AddressRange
	bytes []byte
}

// newView builds a View over r, assuming r is already mapped readable in
// this process's address space.
func newView(r AddressRange) View {
	return View{
		Range: r,
		bytes: unsafe.Slice((*byte)(unsafe.Pointer(r.Start)), r.Len()),
	}
}

// Bytes returns the live bytes of the view. Mutating the returned slice
// writes directly into the mapped region; only do so while the covering
// pages have been made writable.
func (v View) Bytes() []byte {
	return v.bytes
}

// SymbolDescriptor names a function inside a View along with how many bytes
// starting at its address may be safely overwritten.
type SymbolDescriptor struct {
	Name   string
	Addr   uintptr
	Budget int
}

// Status is the lifecycle state of a PatchRecord.
type Status int

const (
	// StatusInstalled marks a record whose stub is currently live.
	StatusInstalled Status = iota
	// StatusRestored marks a record whose original bytes have been put back.
	StatusRestored
)

func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// PatchRecord is the bookkeeping the manager keeps for one installed
// redirection: enough to undo it later.
type PatchRecord struct {
	Symbol    string
	Target    uintptr
	PatchedAt uintptr
	Original  []byte
	Status    Status
}

// PatchSpec is one (symbol, target) pair requested of WithPatches.
type PatchSpec struct {
	Symbol string
	Target uintptr
}

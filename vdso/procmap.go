// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"github.com/prometheus/procfs"
)

// vdsoPathname is the pathname the kernel gives the vDSO mapping in
// /proc/[pid]/maps.
const vdsoPathname = "[vdso]"

// LocateVDSO returns the address range of the calling process's own [vdso]
// mapping, as reported by its /proc/self/maps.
//
// It fails with ErrVdsoNotFound if no such mapping exists (the vDSO can be
// disabled via the kernel's vdso.* boot parameters) and with
// ErrMapReadFailure if the map itself couldn't be read.
func LocateVDSO() (AddressRange, error) {
	self, err := procfs.Self()
	if err != nil {
		return AddressRange{}, wraperr(ErrMapReadFailure, err, "LocateVDSO: open /proc/self")
	}

	maps, err := self.ProcMaps()
	if err != nil {
		return AddressRange{}, wraperr(ErrMapReadFailure, err, "LocateVDSO: read /proc/self/maps")
	}

	for _, m := range maps {
		if m.Pathname != vdsoPathname {
			continue
		}
		return AddressRange{Start: m.StartAddr, End: m.EndAddr}, nil
	}

	return AddressRange{}, wrapf(ErrVdsoNotFound, "LocateVDSO")
}

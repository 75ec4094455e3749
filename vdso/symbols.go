// SPDX-License-Identifier: Unlicense OR MIT

package vdso

// amd64TimeSymbols are the vDSO-exported time entry points on x86_64,
// including both the strong "__vdso_"-prefixed definitions and the weak
// aliases without the prefix. Patching one patches the other: they share a
// prologue at the same address.
var amd64TimeSymbols = []string{
	"clock_gettime", "__vdso_clock_gettime",
	"gettimeofday", "__vdso_gettimeofday",
	"time", "__vdso_time",
	"clock_getres", "__vdso_clock_getres",
}

// arm64TimeSymbols are the vDSO-exported time entry points on aarch64. The
// aarch64 vDSO does not export a bare "time()" the way x86_64's does; only
// the "__kernel_"-prefixed forms exist.
var arm64TimeSymbols = []string{
	"__kernel_clock_gettime",
	"__kernel_gettimeofday",
	"__kernel_clock_getres",
}

// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"flag"
	"fmt"
	"log"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/eliasnaur-labs/vdsohijack/vdso"
)

// pickClockGettimeSymbol returns the canonical clock_gettime entry point
// present in names, preferring the unprefixed alias when both are patchable:
// patching the canonical symbol covers callers that resolved either name
// before the patch, since they share one prologue.
func pickClockGettimeSymbol(names []string) string {
	preferred := []string{"clock_gettime", "__vdso_clock_gettime", "__kernel_clock_gettime"}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	for _, p := range preferred {
		if _, ok := set[p]; ok {
			return p
		}
	}
	return ""
}

// mapExecutable allocates an anonymous RWX page and copies code into it,
// returning the page's base address. The demo maps the page RWX directly
// rather than write-then-reprotect, unlike the engine's own withWritable:
// this is freshly allocated memory with no concurrent readers, so there is
// no window in which a partially written instruction stream is reachable.
func mapExecutable(code []byte) (base uintptr, cleanup func() error, err error) {
	n := len(code)
	if n == 0 {
		return 0, nil, fmt.Errorf("mapExecutable: empty code")
	}
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, nil, fmt.Errorf("mapExecutable: mmap: %w", err)
	}
	copy(mem, code)
	return uintptr(unsafe.Pointer(&mem[0])), func() error { return unix.Munmap(mem) }, nil
}

func runFreeze(m *vdso.Manager, args []string) {
	fs := flag.NewFlagSet("freeze", flag.ExitOnError)
	seconds := fs.Int("seconds", 2, "how long to hold the frozen clock before restoring")
	fs.Parse(args)

	names := m.ListSymbols()
	symbol := pickClockGettimeSymbol(names)
	if symbol == "" {
		log.Fatalf("no patchable clock_gettime symbol on this host (have: %v)", names)
	}

	frozen := time.Now()
	code := emitFrozenClockGettime(frozen.Unix(), int64(frozen.Nanosecond()))

	target, cleanup, err := mapExecutable(code)
	if err != nil {
		log.Fatalf("freeze: %v", err)
	}
	defer cleanup()

	rec, err := m.Install(symbol, target)
	if err != nil {
		log.Fatalf("freeze: Install(%q): %v", symbol, err)
	}
	fmt.Printf("installed frozen clock over %q at %#x, target %#x\n", symbol, rec.PatchedAt, rec.Target)

	fmt.Println("first read: ", time.Now())
	fmt.Println("second read:", time.Now())

	time.Sleep(time.Duration(*seconds) * time.Second)

	if err := m.Restore(symbol); err != nil {
		log.Fatalf("freeze: Restore(%q): %v", symbol, err)
	}
	fmt.Println("restored, third read (advancing):", time.Now())
}

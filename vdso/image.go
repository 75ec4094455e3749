// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"bytes"
	"debug/elf"
	"sort"
)

// ResolveSymbols parses view as an in-memory ELF image and returns a
// descriptor for each requested name that is present among its dynamic
// function symbols. Names absent from the image are simply omitted; that is
// policy for the caller, not an error.
//
// The address of a resolved symbol is view.Range.Start + the symbol's
// st_value: the vDSO is already relocated to its load address, so st_value
// is an offset from the start of the mapping. The writable budget is the
// distance to the next function symbol's address within the view, clamped
// to the end of the view when there is no next symbol.
func ResolveSymbols(view View, names map[string]struct{}) (map[string]SymbolDescriptor, error) {
	f, err := elf.NewFile(bytes.NewReader(view.Bytes()))
	if err != nil {
		return nil, wraperr(ErrMalformedImage, err, "ResolveSymbols: parse ELF header")
	}
	if f.Class != elf.ELFCLASS64 || f.Data != elf.ELFDATA2LSB {
		return nil, wrapf(ErrMalformedImage, "ResolveSymbols: unsupported ELF class/encoding %v/%v", f.Class, f.Data)
	}

	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, wraperr(ErrMalformedImage, err, "ResolveSymbols: read dynamic symbol table")
	}

	type funcSym struct {
		name string
		addr uintptr
	}
	var funcs []funcSym
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value == 0 {
			continue
		}
		funcs = append(funcs, funcSym{name: s.Name, addr: view.Range.Start + uintptr(s.Value)})
	}

	funcAddrs := make([]uintptr, len(funcs))
	for i, fn := range funcs {
		funcAddrs[i] = fn.addr
	}

	out := make(map[string]SymbolDescriptor, len(names))
	for _, fn := range funcs {
		if names != nil {
			if _, want := names[fn.name]; !want {
				continue
			}
		}
		out[fn.name] = SymbolDescriptor{
			Name:   fn.name,
			Addr:   fn.addr,
			Budget: budgetFor(fn.addr, funcAddrs, view.Range.End),
		}
	}
	return out, nil
}

// budgetFor computes the gap from addr to the next distinct, larger address
// in allAddrs, clamped to regionEnd when there is none. It's split out from
// ELF parsing so it can be unit-tested directly against synthetic address
// lists.
func budgetFor(addr uintptr, allAddrs []uintptr, regionEnd uintptr) int {
	distinct := make([]uintptr, 0, len(allAddrs))
	seen := make(map[uintptr]struct{}, len(allAddrs))
	for _, a := range allAddrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		distinct = append(distinct, a)
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	i := sort.Search(len(distinct), func(i int) bool { return distinct[i] > addr })
	if i == len(distinct) {
		return int(regionEnd - addr)
	}
	return int(distinct[i] - addr)
}

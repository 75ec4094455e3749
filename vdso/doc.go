// SPDX-License-Identifier: Unlicense OR MIT

// Package vdso replaces time-query entry points exported by the Linux vDSO
// with caller-supplied function pointers, in the calling process's own
// address space, without relaunching the process or preloading a shared
// library.
//
// A Manager locates the vDSO once per process, resolves the symbols named in
// Install/WithPatches calls against its dynamic symbol table, and rewrites
// the first few bytes of the matched symbol with a short jump stub. The
// original bytes are kept so Restore can put them back.
package vdso

// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import "encoding/binary"

// stubLenARM64 is the length of the aarch64 jump stub: LDR X0, .+8 (4 bytes),
// BR X0 (4 bytes), and the 8-byte absolute target literal itself.
const stubLenARM64 = 16

// emitStubARM64 builds:
//
//	LDR X0, .+8   ; 40 00 00 58 — load the literal 8 bytes ahead into X0
//	BR  X0        ; 00 00 1F D6 — branch to it
//	<imm64, little-endian>
//
// Loading the target via a PC-relative literal keeps the emitted bytes
// self-contained (no external relocation fix-ups needed once copied into
// place), while the literal itself still carries the absolute target
// address.
//
// X0 is AAPCS64's first argument register, so this clobbers it before
// control reaches target; callers whose target depends on its incoming
// arguments must not route through this stub.
func emitStubARM64(target uintptr) []byte {
	stub := make([]byte, stubLenARM64)
	binary.LittleEndian.PutUint32(stub[0:4], 0x58000040) // LDR X0, .+8
	binary.LittleEndian.PutUint32(stub[4:8], 0xD61F0000) // BR X0
	binary.LittleEndian.PutUint64(stub[8:16], uint64(target))
	return stub
}

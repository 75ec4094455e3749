// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import "encoding/binary"

// stubLenAMD64 is the length of the x86_64 jump stub: a 10-byte
// MOV RAX, imm64 followed by a 2-byte JMP RAX.
const stubLenAMD64 = 12

// emitStubAMD64 builds:
//
//	48 B8 <imm64, little-endian>   MOV RAX, imm64
//	FF E0                          JMP RAX
//
// RAX is caller-saved under System V AMD64 and is not one of the first six
// integer argument registers (RDI, RSI, RDX, RCX, R8, R9), so a tail call
// through it leaves the interposed function's arguments untouched. The
// byte layout matches blastbao-gomonkey's buildJmpDirective (there built
// around RDX) and the reference opcodes in the vDSO redesign this engine is
// based on.
func emitStubAMD64(target uintptr) []byte {
	stub := make([]byte, stubLenAMD64)
	stub[0] = 0x48
	stub[1] = 0xB8
	binary.LittleEndian.PutUint64(stub[2:10], uint64(target))
	stub[10] = 0xFF
	stub[11] = 0xE0
	return stub
}

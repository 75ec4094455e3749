// SPDX-License-Identifier: Unlicense OR MIT

package main

// emitFrozenClockGettimeARM64 assembles an AAPCS64 leaf function that stores
// (sec, nsec) through X1 (the struct timespec* argument; X0, the clk_id, is
// ignored) and returns 0 in W0. Each 64-bit immediate is loaded with a
// MOVZ/MOVK chain, one 16-bit lane at a time, encoded locally (vdso's ARM64
// stub loads its target from a PC-relative literal instead).
func emitFrozenClockGettimeARM64(sec, nsec int64) []byte {
	const scratch = 2 // X2: caller-saved, unused by the AAPCS64 argument or link registers here.
	const tp = 1       // X1: second argument register, the timespec pointer.

	var buf []byte
	buf = append(buf, load64(scratch, uint64(sec))...)
	buf = appendLE32(buf, strX(scratch, tp, 0))
	buf = append(buf, load64(scratch, uint64(nsec))...)
	buf = appendLE32(buf, strX(scratch, tp, 8))
	buf = appendLE32(buf, movz32(0, 0, 0)) // W0 = 0
	buf = appendLE32(buf, ret())
	return buf
}

// load64 emits a MOVZ followed by three MOVK instructions loading value into
// Xrd, one 16-bit lane at a time, low lane first.
func load64(rd uint32, value uint64) []byte {
	var buf []byte
	for hw := 0; hw < 4; hw++ {
		imm16 := uint32(value>>uint(hw*16)) & 0xffff
		if hw == 0 {
			buf = appendLE32(buf, movzWord(imm16, hw, rd))
		} else {
			buf = appendLE32(buf, movkWord(imm16, hw, rd))
		}
	}
	return buf
}

func movzWord(imm16 uint32, hw int, rd uint32) uint32 {
	const fixed = 0xD2800000 // MOVZ Xd, #imm16, LSL #(16*hw), 64-bit variant.
	return fixed | (uint32(hw&0x3) << 21) | (imm16 << 5) | rd
}

func movkWord(imm16 uint32, hw int, rd uint32) uint32 {
	const fixed = 0xF2800000 // MOVK Xd, #imm16, LSL #(16*hw).
	return fixed | (uint32(hw&0x3) << 21) | (imm16 << 5) | rd
}

// movz32 is the 32-bit-destination MOVZ variant, used only to zero W0.
func movz32(imm16 uint32, hw int, rd uint32) uint32 {
	const fixed = 0x52800000
	return fixed | (uint32(hw&0x3) << 21) | (imm16 << 5) | rd
}

// strX encodes STR Xt, [Xn, #imm] (unsigned offset, 64-bit variant); imm
// must be a non-negative multiple of 8.
func strX(rt, rn uint32, imm uint32) uint32 {
	const fixed = 0xF9000000
	return fixed | ((imm / 8) << 10) | (rn << 5) | rt
}

func ret() uint32 {
	return 0xD65F03C0 // RET X30
}

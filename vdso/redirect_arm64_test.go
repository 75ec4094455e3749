// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import "encoding/binary"

// frozenClockGettimeCode assembles an AAPCS64 leaf function storing
// (sec, nsec) through X1 (the timespec* argument; X0, the clk_id, is
// ignored) and returning 0 in W0, duplicating cmd/vdsoctl/freeze_arm64_impl.go's
// technique locally since this package cannot import that main package's
// unexported helpers.
func frozenClockGettimeCode(sec, nsec int64) []byte {
	const scratch = 2 // X2: caller-saved, unused by the AAPCS64 argument or link registers here.
	const tp = 1       // X1: second argument register, the timespec pointer.

	var buf []byte
	buf = appendTestLoad64(buf, scratch, uint64(sec))
	buf = appendTestLE32(buf, testStrX(scratch, tp, 0))
	buf = appendTestLoad64(buf, scratch, uint64(nsec))
	buf = appendTestLE32(buf, testStrX(scratch, tp, 8))
	buf = appendTestLE32(buf, testMovz32(0, 0, 0)) // W0 = 0
	buf = appendTestLE32(buf, testRet())
	return buf
}

func appendTestLoad64(buf []byte, rd uint32, value uint64) []byte {
	for hw := 0; hw < 4; hw++ {
		imm16 := uint32(value>>uint(hw*16)) & 0xffff
		if hw == 0 {
			buf = appendTestLE32(buf, testMovzWord(imm16, hw, rd))
		} else {
			buf = appendTestLE32(buf, testMovkWord(imm16, hw, rd))
		}
	}
	return buf
}

func testMovzWord(imm16 uint32, hw int, rd uint32) uint32 {
	const fixed = 0xD2800000
	return fixed | (uint32(hw&0x3) << 21) | (imm16 << 5) | rd
}

func testMovkWord(imm16 uint32, hw int, rd uint32) uint32 {
	const fixed = 0xF2800000
	return fixed | (uint32(hw&0x3) << 21) | (imm16 << 5) | rd
}

func testMovz32(imm16 uint32, hw int, rd uint32) uint32 {
	const fixed = 0x52800000
	return fixed | (uint32(hw&0x3) << 21) | (imm16 << 5) | rd
}

func testStrX(rt, rn uint32, imm uint32) uint32 {
	const fixed = 0xF9000000
	return fixed | ((imm / 8) << 10) | (rn << 5) | rt
}

func testRet() uint32 {
	return 0xD65F03C0 // RET X30
}

func appendTestLE32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return append(buf, b...)
}

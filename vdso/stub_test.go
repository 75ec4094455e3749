// SPDX-License-Identifier: Unlicense OR MIT

package vdso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentinel is the address the design's cross-check tests pin emission
// against: 0x12ff34ff56ff78ff, whose four 16-bit lanes (0x12ff, 0x34ff,
// 0x56ff, 0x78ff) are all non-zero, exercising every byte of both stub
// shapes.
const sentinel = uintptr(0x12ff34ff56ff78ff)

func TestStubLen(t *testing.T) {
	assert.Equal(t, 12, StubLen(ArchAMD64))
	assert.Equal(t, 16, StubLen(ArchARM64))
	assert.Len(t, EmitStub(ArchAMD64, sentinel), StubLen(ArchAMD64))
	assert.Len(t, EmitStub(ArchARM64, sentinel), StubLen(ArchARM64))
}

func TestEmitStubAMD64Sentinel(t *testing.T) {
	stub := EmitStub(ArchAMD64, sentinel)
	require.Len(t, stub, 12)

	// MOV RAX, imm64
	assert.Equal(t, byte(0x48), stub[0])
	assert.Equal(t, byte(0xB8), stub[1])
	assert.Equal(t, []byte{0xff, 0x78, 0xff, 0x56, 0xff, 0x34, 0xff, 0x12}, stub[2:10])
	// JMP RAX
	assert.Equal(t, []byte{0xFF, 0xE0}, stub[10:12])
}

func TestEmitStubARM64Sentinel(t *testing.T) {
	stub := EmitStub(ArchARM64, sentinel)
	require.Len(t, stub, 16)

	assert.Equal(t, []byte{0x40, 0x00, 0x00, 0x58}, stub[0:4], "LDR X0, .+8")
	assert.Equal(t, []byte{0x00, 0x00, 0x1F, 0xD6}, stub[4:8], "BR X0")
	assert.Equal(t, []byte{0xff, 0x78, 0xff, 0x56, 0xff, 0x34, 0xff, 0x12}, stub[8:16], "literal target, little-endian")
}

func TestEmitStubIsDeterministic(t *testing.T) {
	for _, arch := range []Arch{ArchAMD64, ArchARM64} {
		a := EmitStub(arch, 0xdeadbeefcafebabe)
		b := EmitStub(arch, 0xdeadbeefcafebabe)
		assert.Equal(t, a, b)
	}
}

func TestEmitStubUnsupportedArch(t *testing.T) {
	assert.Nil(t, EmitStub(Arch(99), sentinel))
	assert.Equal(t, 0, StubLen(Arch(99)))
}

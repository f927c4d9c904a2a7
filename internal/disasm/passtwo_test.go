package disasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitString(t *testing.T, syntax Syntax, syms *SymbolTable, b *Block) string {
	t.Helper()
	if !syms.Sorted() {
		syms.Sort()
	}
	var buf bytes.Buffer
	require.NoError(t, emitBlock(&buf, syntax, syms, b))
	return buf.String()
}

func TestEmitSingleNop(t *testing.T) {
	b := &Block{
		BaseVAddr: 0x80000000,
		Insns:     []InstructionRecord{rec("nop", "", [4]byte{0, 0, 0, 0}, false)},
		Extras:    []ExtraAnnotation{newExtra()},
	}
	got := emitString(t, GAS, NewSymbolTable(), b)
	assert.Equal(t, "/* 80000000 00000000 */  nop   \n", got)
}

func TestEmitLUIAddiuPair(t *testing.T) {
	syms := NewSymbolTable()
	syms.Add("D_80241000", 0x80241000, true)

	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("lui", "$at, 0x8024", [4]byte{0x3C, 0x01, 0x80, 0x24}, false, Reg("at"), Imm(0x8024)),
			rec("addiu", "$at, $at, 0x1000", [4]byte{0x24, 0x21, 0x10, 0x00}, false, Reg("at"), Reg("at"), Imm(0x1000)),
		},
		Extras: []ExtraAnnotation{
			{LinkedInsn: 1, PayloadKind: PayloadAddress, PayloadValue: 0x80241000},
			{LinkedInsn: 0, PayloadKind: PayloadAddress, PayloadValue: 0x80241000},
		},
	}

	got := emitString(t, GAS, syms, b)
	want := "/* 80000000 3C018024 */  lui   $at, %hi(D_80241000)\n" +
		"/* 80000004 24211000 */  addiu $at, %lo(D_80241000)\n"
	assert.Equal(t, want, got)
}

func TestEmitFloatLiteral(t *testing.T) {
	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("li", "$at, 0x3f80", [4]byte{0x3C, 0x01, 0x3F, 0x80}, false, Reg("at"), Imm(0x3F80)),
		},
		Extras: []ExtraAnnotation{
			{LinkedInsn: 1, PayloadKind: PayloadFloatBits, PayloadValue: 0x3F800000},
		},
	}
	got := emitString(t, GAS, NewSymbolTable(), b)
	assert.Equal(t, "/* 80000000 3C013F80 */  li    $at, 0x3F800000 # 1.000000\n", got)
}

func TestEmitBranchToSelf(t *testing.T) {
	syms := NewSymbolTable()
	syms.Add(".L80000000", 0x80000000, false)

	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("beq", "", [4]byte{0x10, 0x00, 0xFF, 0xFF}, true, Reg("zero"), Reg("zero"), Imm(0x80000000)),
		},
		Extras: []ExtraAnnotation{newExtra()},
	}
	got := emitString(t, GAS, syms, b)
	want := ".L80000000:\n/* 80000000 1000FFFF */  beq   $zero, $zero, .L80000000\n"
	assert.Equal(t, want, got)
}

func TestEmitFunctionBoundaryBlankLine(t *testing.T) {
	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("jr", "", [4]byte{0, 0, 0, 0}, true, Reg("ra")),
			rec("nop", "", [4]byte{0, 0, 0, 0}, false),
			rec("addiu", "$sp, $sp, -16", [4]byte{0, 0, 0, 0}, false, Reg("sp"), Reg("sp"), Imm(-16)),
		},
		Extras: []ExtraAnnotation{newExtra(), newExtra(), {LinkedInsn: noLink, NewlineBefore: true}},
	}
	got := emitString(t, GAS, NewSymbolTable(), b)
	assert.Contains(t, got, "\n\n/* 80000008")
}

func TestEmitARMIPSHighLowHalves(t *testing.T) {
	syms := NewSymbolTable()
	syms.Add("D_80241000", 0x80241000, true)

	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("lui", "$at, 0x8024", [4]byte{0, 0, 0, 0}, false, Reg("at"), Imm(0x8024)),
			rec("addiu", "$at, $at, 0x1000", [4]byte{0, 0, 0, 0}, false, Reg("at"), Reg("at"), Imm(0x1000)),
		},
		Extras: []ExtraAnnotation{
			{LinkedInsn: 1, PayloadKind: PayloadAddress, PayloadValue: 0x80241000},
			{LinkedInsn: 0, PayloadKind: PayloadAddress, PayloadValue: 0x80241000},
		},
	}

	got := emitString(t, ARMIPS, syms, b)
	assert.Contains(t, got, "la.u  $at, D_80241000 // lui $at, 0x8024\n")
	assert.Contains(t, got, "la.l  $at, D_80241000 // addiu $at, $at, 0x1000\n")
}

func TestEmitMemoryLowHalf(t *testing.T) {
	syms := NewSymbolTable()
	syms.Add("D_80241004", 0x80241004, true)

	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("lui", "", [4]byte{0, 0, 0, 0}, false, Reg("at"), Imm(0x8024)),
			rec("lw", "", [4]byte{0, 0, 0, 0}, false, Reg("v0"), Mem("at", 4)),
		},
		Extras: []ExtraAnnotation{
			{LinkedInsn: 1, PayloadKind: PayloadAddress, PayloadValue: 0x80241004},
			{LinkedInsn: 0, PayloadKind: PayloadAddress, PayloadValue: 0x80241004},
		},
	}

	got := emitString(t, GAS, syms, b)
	assert.Contains(t, got, "lw    $v0, %lo(D_80241004)($at)\n")
}

func TestEmitCop0Move(t *testing.T) {
	// mfc0 $t0, $14 encoded with rd in bits 15:11 -> bytes[2]=0x70 => rd=14
	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("mfc0", "$t0, $14", [4]byte{0x40, 0x08, 0x70, 0x00}, false, Reg("t0")),
		},
		Extras: []ExtraAnnotation{newExtra()},
	}
	got := emitString(t, GAS, NewSymbolTable(), b)
	assert.Contains(t, got, "mfc0  $t0, $14\n")
}

func TestEmitMissingLabelIsError(t *testing.T) {
	b := &Block{
		BaseVAddr: 0x80000000,
		Insns: []InstructionRecord{
			rec("beq", "", [4]byte{0, 0, 0, 0}, true, Reg("zero"), Reg("zero"), Imm(0x80000004)),
		},
		Extras: []ExtraAnnotation{newExtra()},
	}
	var buf bytes.Buffer
	syms := NewSymbolTable()
	syms.Sort()
	err := emitBlock(&buf, GAS, syms, b)
	require.Error(t, err)
	var ml *MissingLabel
	assert.ErrorAs(t, err, &ml)
}

func TestEmitSkipsLabelsBeforeBlockBase(t *testing.T) {
	syms := NewSymbolTable()
	syms.Add("func_00000050", 0x50, true)
	syms.Add(".L80000000", 0x80000000, false)

	b := &Block{
		BaseVAddr: 0x80000000,
		Insns:     []InstructionRecord{rec("nop", "", [4]byte{0, 0, 0, 0}, false)},
		Extras:    []ExtraAnnotation{newExtra()},
	}
	got := emitString(t, GAS, syms, b)
	assert.NotContains(t, got, "func_00000050")
	assert.Contains(t, got, ".L80000000:\n")
}

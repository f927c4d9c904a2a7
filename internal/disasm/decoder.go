package disasm

import (
	"fmt"

	"github.com/knightsc/gapstone"
)

// Decoder is the external instruction-decoder collaborator contract (spec
// §4.1). Everything above this interface is byte-decoding-agnostic; Decode
// is the only place MIPS machine-code knowledge from outside this package
// leaks in.
type Decoder interface {
	// Decode disassembles bytes, which must sit at baseVAddr in the target's
	// address space, into an ordered instruction stream. Instruction i
	// corresponds to bytes[4i:4i+4] at vaddr baseVAddr+4i.
	Decode(bytes []byte, baseVAddr uint32) ([]InstructionRecord, error)
	// Close releases the decoder handle. Safe to call once; further Decode
	// calls after Close are an error.
	Close() error
}

// gapstoneDecoder adapts github.com/knightsc/gapstone, a cgo binding onto
// Capstone, to the Decoder contract. It is configured once, at construction,
// for MIPS III / 64-bit / big-endian / full operand detail / skip-data.
type gapstoneDecoder struct {
	engine gapstone.Engine
	closed bool
}

// NewDecoder opens and configures a fresh decoder handle. The caller owns
// the returned Decoder and must Close it.
func NewDecoder() (Decoder, error) {
	engine, err := gapstone.New(gapstone.CS_ARCH_MIPS, gapstone.CS_MODE_MIPS64+gapstone.CS_MODE_BIG_ENDIAN)
	if err != nil {
		return nil, fmt.Errorf("disasm: opening capstone MIPS engine: %w", err)
	}
	if err := engine.SetOption(gapstone.CS_OPT_DETAIL, gapstone.CS_OPT_ON); err != nil {
		engine.Close()
		return nil, fmt.Errorf("disasm: enabling operand detail: %w", err)
	}
	if err := engine.SetOption(gapstone.CS_OPT_SKIPDATA, gapstone.CS_OPT_ON); err != nil {
		engine.Close()
		return nil, fmt.Errorf("disasm: enabling skip-data: %w", err)
	}
	return &gapstoneDecoder{engine: engine}, nil
}

func (d *gapstoneDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.engine.Close()
}

func (d *gapstoneDecoder) Decode(data []byte, baseVAddr uint32) ([]InstructionRecord, error) {
	if d.closed {
		return nil, fmt.Errorf("disasm: Decode called on closed decoder")
	}

	insns, err := d.engine.Disasm(data, uint64(baseVAddr), 0)
	if err != nil {
		return nil, fmt.Errorf("disasm: capstone disassembly failed: %w", err)
	}
	if len(insns) == 0 && len(data) > 0 {
		return nil, &DecodeFailure{BaseVAddr: baseVAddr, Len: len(data)}
	}

	out := make([]InstructionRecord, len(insns))
	for i, insn := range insns {
		out[i] = d.convert(insn)
	}
	return out, nil
}

func (d *gapstoneDecoder) convert(insn gapstone.Instruction) InstructionRecord {
	rec := InstructionRecord{
		Mnemonic: insn.Mnemonic,
		OpStr:    insn.OpStr,
		Groups:   make(map[InstructionGroup]bool, 1),
	}
	copy(rec.Bytes[:], insn.Bytes)

	for _, g := range insn.Groups {
		if uint(g) == gapstone.MIPS_GRP_JUMP {
			rec.Groups[GroupJump] = true
		}
	}

	if insn.Mips != nil {
		rec.Operands = make([]Operand, len(insn.Mips.Operands))
		for i, op := range insn.Mips.Operands {
			switch op.Type {
			case gapstone.MIPS_OP_REG:
				rec.Operands[i] = Reg(d.engine.RegName(uint(op.Reg)))
			case gapstone.MIPS_OP_IMM:
				rec.Operands[i] = Imm(op.Imm)
			case gapstone.MIPS_OP_MEM:
				rec.Operands[i] = Mem(d.engine.RegName(uint(op.Mem.Base)), int32(op.Mem.Disp))
			}
		}
	}

	return rec
}

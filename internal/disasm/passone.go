package disasm

import "fmt"

// maxBackwardSearch bounds link_with_lui's backward scan (spec §4.3.1,
// §9): a tunable lookback window that approximates intra-procedural
// reaching-definition analysis without building a CFG.
const maxBackwardSearch = 128

// memClobbers are the instructions whose destination register kills a
// pending LUI/low-half pairing for the memory-op and arithmetic-immediate
// rules (spec §4.3.1).
var memClobbers = map[string]bool{
	"lw": true, "ld": true, "addiu": true, "add": true, "sub": true, "subu": true,
}

// floatClobbers extends memClobbers with the narrower load widths; the
// float-literal rule's backward search also stops at a byte or halfword load
// into the source GPR, treating it as a clobber (supplements spec §4.3 with
// the liveness set the original implementation actually used).
var floatClobbers = map[string]bool{
	"lw": true, "ld": true, "lh": true, "lhu": true, "lb": true, "lbu": true,
	"addiu": true, "add": true, "sub": true, "subu": true,
}

// analyzeRange runs the single forward traversal of pass one over insns,
// mutating extras in place and adding labels to syms. mergePseudo gates the
// three pseudo-instruction pairing rules.
func analyzeRange(syms *SymbolTable, syntax Syntax, insns []InstructionRecord, extras []ExtraAnnotation, mergePseudo bool) {
	count := len(insns)
	for i := range insns {
		insn := &insns[i]

		if insn.InGroup(GroupJump) {
			analyzeJump(syms, syntax, insns, extras, i, count)
		} else if insn.Mnemonic == "jal" || insn.Mnemonic == "bal" {
			analyzeCall(syms, insn)
		}

		if mergePseudo {
			mergePseudoInstruction(syms, insns, extras, i)
		}
	}
}

func analyzeJump(syms *SymbolTable, syntax Syntax, insns []InstructionRecord, extras []ExtraAnnotation, i, count int) {
	insn := &insns[i]
	if (insn.Mnemonic == "jr" || insn.Mnemonic == "jalr") && len(insn.Operands) > 0 &&
		insn.Operands[0].Kind == OperandRegister && insn.Operands[0].Register == "ra" {
		if i+2 < count {
			extras[i+2].NewlineBefore = true
		}
		return
	}

	for _, op := range insn.Operands {
		if op.Kind != OperandImmediate {
			continue
		}
		target := uint32(op.Immediate)
		if syms.Find(target) < 0 {
			syms.Add(localBranchLabel(syntax, target), target, false)
		}
	}
}

func analyzeCall(syms *SymbolTable, insn *InstructionRecord) {
	if len(insn.Operands) == 0 || insn.Operands[0].Kind != OperandImmediate {
		return
	}
	target := uint32(insn.Operands[0].Immediate)
	if syms.Find(target) < 0 {
		syms.Add(funcLabel(target), target, true)
	}
}

func mergePseudoInstruction(syms *SymbolTable, insns []InstructionRecord, extras []ExtraAnnotation, i int) {
	insn := &insns[i]
	switch insn.Mnemonic {
	case "mtc1":
		mergeFloatLiteral(insns, extras, i)
	case "lb", "lbu", "lh", "lhu", "lw", "lwu", "ld", "ldl", "ldr", "sb", "sh", "sw", "sd":
		if len(insn.Operands) < 2 || insn.Operands[1].Kind != OperandMemory {
			return
		}
		mem := insn.Operands[1]
		if mem.Displacement == 0 {
			return
		}
		linkWithLUI(syms, insns, extras, i, mem.Register, mem.Displacement)
	case "addiu", "ori":
		mergeArithImmediate(syms, insns, extras, i)
	}
}

// mergeFloatLiteral implements the MTC1 <- LUI pairing rule of spec §4.3.
func mergeFloatLiteral(insns []InstructionRecord, extras []ExtraAnnotation, i int) {
	if len(insns[i].Operands) == 0 || insns[i].Operands[0].Kind != OperandRegister {
		return
	}
	rt := insns[i].Operands[0].Register

	limit := i - maxBackwardSearch
	if limit < 0 {
		limit = 0
	}
	for s := i - 1; s >= limit; s-- {
		cand := &insns[s]
		if cand.Mnemonic == "lui" && len(cand.Operands) > 0 && cand.Operands[0].Register == rt {
			luiImm := uint32(cand.Operands[1].Immediate) << 16
			extras[s].LinkedInsn = i
			extras[s].PayloadKind = PayloadFloatBits
			extras[s].PayloadValue = luiImm
			cand.Mnemonic = "li"
			return
		}
		if floatClobbers[cand.Mnemonic] && len(cand.Operands) > 0 && cand.Operands[0].Kind == OperandRegister && cand.Operands[0].Register == rt {
			return
		}
		if cand.Mnemonic == "jr" && len(cand.Operands) > 0 && cand.Operands[0].Register == "ra" {
			return
		}
	}
}

// mergeArithImmediate implements the ADDIU/ORI rule of spec §4.3.
func mergeArithImmediate(syms *SymbolTable, insns []InstructionRecord, extras []ExtraAnnotation, i int) {
	insn := &insns[i]
	if len(insn.Operands) < 3 {
		return
	}
	rd, rs, imm := insn.Operands[0], insn.Operands[1], insn.Operands[2]
	if rd.Kind != OperandRegister || rs.Kind != OperandRegister || imm.Kind != OperandImmediate {
		return
	}

	if rs.Register == "zero" {
		insn.Mnemonic = "li"
		insn.OpStr = fmt.Sprintf("$%s, %d", rd.Register, imm.Immediate)
		return
	}
	if rd.Register == rs.Register && imm.Immediate != 0 {
		linkWithLUI(syms, insns, extras, i, rs.Register, int32(imm.Immediate))
	}
}

// linkWithLUI is the pseudo-pairing core of spec §4.3.1: a bounded backward
// search from offset pairing a high-half LUI with the low-half user at
// offset. memImm must be non-zero; callers check this before calling.
func linkWithLUI(syms *SymbolTable, insns []InstructionRecord, extras []ExtraAnnotation, offset int, reg string, memImm int32) {
	limit := offset - maxBackwardSearch
	if limit < 0 {
		limit = 0
	}

	for search := offset - 1; search >= limit; search-- {
		cand := &insns[search]
		if cand.Mnemonic == "lui" && len(cand.Operands) > 0 && cand.Operands[0].Register == reg {
			luiImm := uint32(cand.Operands[1].Immediate)
			addr := (luiImm << 16) + uint32(memImm)

			extras[search].LinkedInsn = offset
			extras[search].PayloadKind = PayloadAddress
			extras[search].PayloadValue = addr
			extras[offset].LinkedInsn = search
			extras[offset].PayloadKind = PayloadAddress
			extras[offset].PayloadValue = addr

			if insns[offset].Mnemonic != "ori" && syms.Find(addr) < 0 {
				syms.Add(dataLabel(addr), addr, true)
			}
			return
		}
		if memClobbers[cand.Mnemonic] && len(cand.Operands) > 0 && cand.Operands[0].Kind == OperandRegister && cand.Operands[0].Register == reg {
			return
		}
		if cand.Mnemonic == "jr" && len(cand.Operands) > 0 && cand.Operands[0].Register == "ra" {
			return
		}
	}
}

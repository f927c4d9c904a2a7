package disasm

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Emit writes the state's latest Block as dialect-specific assembly text,
// interleaving labels from the (sorted) symbol table at matching virtual
// addresses. The table must have been Sort()-ed since the last Add; Emit
// sorts it if that invariant was violated, matching spec §5's caller-visible
// re-sort requirement.
func (s *DisassemblyState) Emit(w io.Writer) error {
	if !s.Symbols.Sorted() {
		s.Symbols.Sort()
	}
	if s.Block == nil {
		return nil
	}
	return emitBlock(w, s.Syntax, s.Symbols, s.Block)
}

func emitBlock(w io.Writer, syntax Syntax, syms *SymbolTable, b *Block) error {
	vaddr := b.BaseVAddr
	labelIdx := 0
	for labelIdx < syms.Len() && syms.At(labelIdx).VAddr < vaddr {
		labelIdx++
	}

	for i := range b.Insns {
		insn := &b.Insns[i]
		extra := &b.Extras[i]

		if extra.NewlineBefore {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		for labelIdx < syms.Len() && syms.At(labelIdx).VAddr == vaddr {
			if _, err := fmt.Fprintf(w, "%s:\n", syms.At(labelIdx).Name); err != nil {
				return err
			}
			labelIdx++
		}

		if _, err := fmt.Fprintf(w, "/* %08X %02X%02X%02X%02X */  ", vaddr,
			insn.Bytes[0], insn.Bytes[1], insn.Bytes[2], insn.Bytes[3]); err != nil {
			return err
		}

		line, err := emitInstruction(syntax, syms, b, i)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}

		vaddr += 4
	}
	return nil
}

func emitInstruction(syntax Syntax, syms *SymbolTable, b *Block, i int) (string, error) {
	insn := &b.Insns[i]
	extra := &b.Extras[i]

	switch {
	case insn.InGroup(GroupJump):
		return emitControlTransfer(syms, insn, i)
	case insn.Mnemonic == "jal" || insn.Mnemonic == "bal":
		return emitCall(syms, insn, i)
	case insn.Mnemonic == "mtc0" || insn.Mnemonic == "mfc0":
		return emitCop0Move(insn), nil
	case extra.LinkedInsn != noLink:
		return emitLinked(syntax, syms, b, i)
	default:
		return fmt.Sprintf("%-5s %s\n", insn.Mnemonic, insn.OpStr), nil
	}
}

func emitControlTransfer(syms *SymbolTable, insn *InstructionRecord, i int) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s ", insn.Mnemonic)
	for o, op := range insn.Operands {
		if o > 0 {
			sb.WriteString(", ")
		}
		switch op.Kind {
		case OperandRegister:
			fmt.Fprintf(&sb, "$%s", op.Register)
		case OperandImmediate:
			target := uint32(op.Immediate)
			idx := syms.Find(target)
			if idx < 0 {
				return "", &MissingLabel{InsnIndex: i, VAddr: target, Context: "branch/jump target"}
			}
			sb.WriteString(syms.At(idx).Name)
		}
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}

func emitCall(syms *SymbolTable, insn *InstructionRecord, i int) (string, error) {
	if len(insn.Operands) == 0 || insn.Operands[0].Kind != OperandImmediate {
		return fmt.Sprintf("%-5s %s\n", insn.Mnemonic, insn.OpStr), nil
	}
	target := uint32(insn.Operands[0].Immediate)
	idx := syms.Find(target)
	if idx < 0 {
		return "", &MissingLabel{InsnIndex: i, VAddr: target, Context: "call target"}
	}
	return fmt.Sprintf("%-5s %s\n", insn.Mnemonic, syms.At(idx).Name), nil
}

// emitCop0Move works around a known decoder mis-rendering of mtc0/mfc0: the
// rd field is extracted directly from the raw instruction bytes rather than
// trusted from the decoded operands (spec §4.4(iii)).
func emitCop0Move(insn *InstructionRecord) string {
	rd := (insn.Bytes[2] & 0xF8) >> 3
	reg := ""
	if len(insn.Operands) > 0 {
		reg = insn.Operands[0].Register
	}
	return fmt.Sprintf("%-5s $%s, $%d\n", insn.Mnemonic, reg, rd)
}

func emitLinked(syntax Syntax, syms *SymbolTable, b *Block, i int) (string, error) {
	insn := &b.Insns[i]
	extra := &b.Extras[i]

	switch {
	case insn.Mnemonic == "li" && extra.PayloadKind == PayloadFloatBits:
		return emitFloatLiteral(syntax, insn, extra), nil
	case insn.Mnemonic == "lui":
		return emitHighHalf(syntax, syms, b, i)
	case insn.Mnemonic == "addiu" || insn.Mnemonic == "ori":
		return emitLowHalf(syntax, syms, insn, extra, i)
	default:
		return emitMemoryLowHalf(syntax, syms, insn, extra, i)
	}
}

func emitFloatLiteral(syntax Syntax, insn *InstructionRecord, extra *ExtraAnnotation) string {
	reg := ""
	var hi int64
	if len(insn.Operands) > 1 {
		reg = insn.Operands[0].Register
		hi = insn.Operands[1].Immediate
	}
	f := math.Float32frombits(extra.PayloadValue)
	comment := "#"
	if syntax == ARMIPS {
		comment = "//"
	}
	return fmt.Sprintf("li    $%s, 0x%04X0000 %s %f\n", reg, uint32(hi), comment, f)
}

func emitHighHalf(syntax Syntax, syms *SymbolTable, b *Block, i int) (string, error) {
	insn := &b.Insns[i]
	extra := &b.Extras[i]
	idx := syms.Find(extra.PayloadValue)
	if idx < 0 {
		return "", &MissingLabel{InsnIndex: i, VAddr: extra.PayloadValue, Context: "lui high-half"}
	}
	label := syms.At(idx).Name
	reg := ""
	if len(insn.Operands) > 0 {
		reg = insn.Operands[0].Register
	}

	if syntax == GAS {
		return fmt.Sprintf("lui   $%s, %%hi(%s)\n", reg, label), nil
	}

	linked := &b.Insns[extra.LinkedInsn]
	switch linked.Mnemonic {
	case "addiu":
		return fmt.Sprintf("la.u  $%s, %s // %s %s\n", reg, label, insn.Mnemonic, insn.OpStr), nil
	case "ori":
		return fmt.Sprintf("li.u  $%s, 0x%08X // %s %s\n", reg, extra.PayloadValue, insn.Mnemonic, insn.OpStr), nil
	default:
		return fmt.Sprintf("lui   $%s, hi(%s)\n", reg, label), nil
	}
}

func emitLowHalf(syntax Syntax, syms *SymbolTable, insn *InstructionRecord, extra *ExtraAnnotation, i int) (string, error) {
	idx := syms.Find(extra.PayloadValue)
	if idx < 0 {
		return "", &MissingLabel{InsnIndex: i, VAddr: extra.PayloadValue, Context: "low-half user"}
	}
	label := syms.At(idx).Name
	reg := ""
	if len(insn.Operands) > 0 {
		reg = insn.Operands[0].Register
	}

	if syntax == GAS {
		return fmt.Sprintf("%-5s $%s, %%lo(%s)\n", insn.Mnemonic, reg, label), nil
	}

	switch insn.Mnemonic {
	case "addiu":
		return fmt.Sprintf("la.l  $%s, %s // %s %s\n", reg, label, insn.Mnemonic, insn.OpStr), nil
	default: // ori
		return fmt.Sprintf("li.l  $%s, 0x%08X // %s %s\n", reg, extra.PayloadValue, insn.Mnemonic, insn.OpStr), nil
	}
}

func emitMemoryLowHalf(syntax Syntax, syms *SymbolTable, insn *InstructionRecord, extra *ExtraAnnotation, i int) (string, error) {
	idx := syms.Find(extra.PayloadValue)
	if idx < 0 {
		return "", &MissingLabel{InsnIndex: i, VAddr: extra.PayloadValue, Context: "memory low-half"}
	}
	label := syms.At(idx).Name
	dst, base := "", ""
	if len(insn.Operands) > 1 {
		dst = insn.Operands[0].Register
		base = insn.Operands[1].Register
	}
	prefix := ""
	if syntax == GAS {
		prefix = "%"
	}
	return fmt.Sprintf("%-5s $%s, %slo(%s)($%s)\n", insn.Mnemonic, dst, prefix, label, base), nil
}

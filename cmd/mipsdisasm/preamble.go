package main

import (
	"fmt"
	"io"
	"path/filepath"

	"mipsdisasm/internal/disasm"
)

// writeHeader emits the assembler-preamble boilerplate that belongs to the
// driver, not the core package (spec §6: "assembler preambles ... are the
// responsibility of the driver collaborator").
func writeHeader(w io.Writer, syntax disasm.Syntax, outputFile string) error {
	switch syntax {
	case disasm.GAS:
		_, err := fmt.Fprintf(w, ".set noat      # allow manual use of $at\n.set noreorder # don't insert nops after branches\n\n")
		return err
	case disasm.ARMIPS:
		binName := "test.bin"
		if outputFile != "" {
			binName = filepath.Base(outputFile)
			ext := filepath.Ext(binName)
			binName = binName[:len(binName)-len(ext)] + ".bin"
		}
		_, err := fmt.Fprintf(w, ".n64\n.create \"%s\", 0x00000000\n\n", binName)
		return err
	}
	return nil
}

// writeFooter emits the matching assembler-postamble boilerplate.
func writeFooter(w io.Writer, syntax disasm.Syntax) error {
	if syntax != disasm.ARMIPS {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n.close\n")
	return err
}

// writeRangeHeader emits the per-range `.headersize` line and, for ARMIPS,
// `.definelabel` lines for every accumulated symbol outside this range —
// cross-range symbol export is driver boilerplate per spec §4.4's pass-two
// note, not core pipeline behavior.
func writeRangeHeader(w io.Writer, syntax disasm.Syntax, syms *disasm.SymbolTable, r codeRange) error {
	if _, err := fmt.Fprintf(w, ".headersize 0x%08X\n\n", r.VAddr); err != nil {
		return err
	}

	if syntax != disasm.ARMIPS {
		return nil
	}
	for _, l := range syms.All() {
		if l.VAddr < r.VAddr || l.VAddr >= r.VAddr+r.Length {
			if _, err := fmt.Fprintf(w, ".definelabel %s, 0x%08X\n", l.Name, l.VAddr); err != nil {
				return err
			}
		}
	}
	return nil
}

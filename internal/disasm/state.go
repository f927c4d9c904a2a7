package disasm

// Block is the decoded instruction stream and parallel annotation vector for
// a single disassembled range. Only the most recently analyzed Block is
// emittable by pass two; see spec §5 and §9 (cross-range state reuse).
type Block struct {
	BaseVAddr uint32
	Insns     []InstructionRecord
	Extras    []ExtraAnnotation
}

// DisassemblyState is the pipeline's owning object: a symbol table
// accumulated across however many ranges have been analyzed, the decoder
// handle used to produce them, the dialect in force, and the latest
// decoded Block. The decoder handle is scoped to the state's lifetime: it is
// acquired by NewState and released by Close, on every exit path including a
// DecodeFailure.
type DisassemblyState struct {
	Syntax  Syntax
	Symbols *SymbolTable
	Block   *Block

	decoder Decoder
}

// NewState opens a decoder handle and returns an empty pipeline state for
// the given dialect. The caller must Close the returned state.
func NewState(syntax Syntax) (*DisassemblyState, error) {
	dec, err := NewDecoder()
	if err != nil {
		return nil, err
	}
	return NewStateWithDecoder(syntax, dec), nil
}

// NewStateWithDecoder builds a state around a caller-supplied Decoder,
// bypassing the real capstone-backed adapter. Exported primarily so tests
// can substitute a fake Decoder without linking cgo.
func NewStateWithDecoder(syntax Syntax, dec Decoder) *DisassemblyState {
	return &DisassemblyState{
		Syntax:  syntax,
		Symbols: NewSymbolTable(),
		decoder: dec,
	}
}

// Close releases the state's decoder handle.
func (s *DisassemblyState) Close() error {
	return s.decoder.Close()
}

// AnalyzeRange decodes data (which must sit at baseVAddr) and runs pass one
// over it, accumulating discovered labels into the state's shared symbol
// table and replacing the state's Block with this range's decoded stream.
// Multiple calls on the same state are permitted; only the stream from the
// latest call is emittable by Emit. Returns *DecodeFailure if the decoder
// yields nothing for non-empty input; the symbol table is left exactly as
// it was before the call in that case.
func (s *DisassemblyState) AnalyzeRange(data []byte, baseVAddr uint32, mergePseudo bool) error {
	insns, err := s.decoder.Decode(data, baseVAddr)
	if err != nil {
		return err
	}

	extras := make([]ExtraAnnotation, len(insns))
	for i := range extras {
		extras[i] = newExtra()
	}

	analyzeRange(s.Symbols, s.Syntax, insns, extras, mergePseudo)

	s.Block = &Block{BaseVAddr: baseVAddr, Insns: insns, Extras: extras}
	return nil
}

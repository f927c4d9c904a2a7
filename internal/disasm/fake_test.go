package disasm

// fakeDecoder feeds a canned instruction stream to AnalyzeRange without
// touching cgo/capstone, so the pass-one/pass-two logic can be exercised in
// isolation. Every Decode call returns the current insns slice itself (not a
// copy), so a test can swap insns between calls to feed successive ranges.
type fakeDecoder struct {
	insns  []InstructionRecord
	closed bool
}

func (f *fakeDecoder) Decode(data []byte, baseVAddr uint32) ([]InstructionRecord, error) {
	if len(f.insns) == 0 && len(data) > 0 {
		return nil, &DecodeFailure{BaseVAddr: baseVAddr, Len: len(data)}
	}
	return f.insns, nil
}

func (f *fakeDecoder) Close() error {
	f.closed = true
	return nil
}

// rec is a small builder for readable test fixtures.
func rec(mnemonic, opStr string, bytes [4]byte, jump bool, ops ...Operand) InstructionRecord {
	r := InstructionRecord{Mnemonic: mnemonic, OpStr: opStr, Bytes: bytes, Operands: ops}
	if jump {
		r.Groups = map[InstructionGroup]bool{GroupJump: true}
	}
	return r
}

package disasm

import (
	"fmt"
	"sort"
)

// Label is a named reference to a virtual address. Multiple labels may share
// a vaddr (a local branch label and a global function alias, for instance);
// the table tolerates these aliases rather than deduplicating them.
type Label struct {
	Name   string
	VAddr  uint32
	Global bool
}

const maxLabelNameLen = 58

// SymbolTable is the label table of spec §4.2: an append-only list with a
// canonical sort, accumulated across however many pass-one analyses share a
// DisassemblyState.
type SymbolTable struct {
	labels []Label
	sorted bool
}

// NewSymbolTable returns an empty table with a reasonable initial capacity.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{labels: make([]Label, 0, 256)}
}

// Len reports the number of labels currently in the table.
func (t *SymbolTable) Len() int { return len(t.labels) }

// At returns the label at the given canonical-order index. Panics if the
// table has not been sorted, matching the caller-visible invariant that
// pass two never runs against an unsorted table.
func (t *SymbolTable) At(i int) Label {
	if !t.sorted {
		panic("disasm: SymbolTable.At called before Sort")
	}
	return t.labels[i]
}

// Find returns the index of a label at vaddr, or -1. Before Sort this is a
// linear scan over insertion order; after Sort it is a binary search that
// returns the first (lowest (Global, Name)) match in canonical order.
func (t *SymbolTable) Find(vaddr uint32) int {
	if !t.sorted {
		for i, l := range t.labels {
			if l.VAddr == vaddr {
				return i
			}
		}
		return -1
	}

	i := sort.Search(len(t.labels), func(i int) bool { return t.labels[i].VAddr >= vaddr })
	if i < len(t.labels) && t.labels[i].VAddr == vaddr {
		return i
	}
	return -1
}

// Add appends a label unconditionally. Callers are responsible for checking
// Find first if they want to avoid duplicates; the table itself tolerates
// aliases at the same address. Invalidates any prior Sort.
func (t *SymbolTable) Add(name string, vaddr uint32, global bool) {
	if len(name) == 0 || len(name) > maxLabelNameLen {
		panic("disasm: label name must be 1-58 characters")
	}
	t.labels = append(t.labels, Label{Name: name, VAddr: vaddr, Global: global})
	t.sorted = false
}

// Sort applies the canonical order: ascending VAddr, then Global (false
// before true), then lexicographic Name. Must run exactly once before any
// pass-two emission and again after any further Add calls.
func (t *SymbolTable) Sort() {
	sort.Slice(t.labels, func(i, j int) bool {
		a, b := t.labels[i], t.labels[j]
		if a.VAddr != b.VAddr {
			return a.VAddr < b.VAddr
		}
		if a.Global != b.Global {
			return !a.Global
		}
		return a.Name < b.Name
	})
	t.sorted = true
}

// Sorted reports whether Sort has run since the last Add.
func (t *SymbolTable) Sorted() bool { return t.sorted }

// All returns a copy of every label currently in the table, in whatever
// order they happen to be in (insertion order if unsorted, canonical order
// if Sort has run). Intended for driver-side bookkeeping, such as emitting
// cross-range `.definelabel` directives, where canonical ordering doesn't
// matter.
func (t *SymbolTable) All() []Label {
	out := make([]Label, len(t.labels))
	copy(out, t.labels)
	return out
}

// localBranchLabel synthesizes the dialect-specific local branch label name.
func localBranchLabel(syntax Syntax, target uint32) string {
	if syntax == ARMIPS {
		return fmt.Sprintf("@L%08X", target)
	}
	return fmt.Sprintf(".L%08X", target)
}

// funcLabel synthesizes a global call-target label name.
func funcLabel(target uint32) string {
	return fmt.Sprintf("func_%08X", target)
}

// dataLabel synthesizes a global data-reference label name.
func dataLabel(target uint32) string {
	return fmt.Sprintf("D_%08X", target)
}

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// codeRange is a single disassembly job: VAddr is where the bytes
// [Start, Start+Length) of the input file are mapped in the target's
// address space. Parsed from the driver's RANGES arguments, not the core
// package's concern (spec §1: "range selection" is an external collaborator
// responsibility).
type codeRange struct {
	VAddr  uint32
	Start  uint32
	Length uint32
}

// parseRange accepts "<vaddr>:<start>-<end>" or "<vaddr>:<start>+<length>",
// matching range_parse() in the original mipsdisasm implementation.
func parseRange(arg string) (codeRange, error) {
	var r codeRange

	colon := strings.IndexByte(arg, ':')
	vaddrPart := arg
	rest := ""
	if colon >= 0 {
		vaddrPart = arg[:colon]
		rest = arg[colon+1:]
	}

	vaddr, err := strconv.ParseUint(vaddrPart, 0, 32)
	if err != nil {
		return r, fmt.Errorf("invalid range %q: bad vaddr: %w", arg, err)
	}
	r.VAddr = uint32(vaddr)

	if rest == "" {
		return r, nil
	}

	if i := strings.IndexByte(rest, '-'); i >= 0 {
		start, err := strconv.ParseUint(rest[:i], 0, 32)
		if err != nil {
			return r, fmt.Errorf("invalid range %q: bad start: %w", arg, err)
		}
		end, err := strconv.ParseUint(rest[i+1:], 0, 32)
		if err != nil {
			return r, fmt.Errorf("invalid range %q: bad end: %w", arg, err)
		}
		if end < start {
			return r, fmt.Errorf("invalid range %q: end before start", arg)
		}
		r.Start = uint32(start)
		r.Length = uint32(end - start)
		return r, nil
	}

	if i := strings.IndexByte(rest, '+'); i >= 0 {
		start, err := strconv.ParseUint(rest[:i], 0, 32)
		if err != nil {
			return r, fmt.Errorf("invalid range %q: bad start: %w", arg, err)
		}
		length, err := strconv.ParseUint(rest[i+1:], 0, 32)
		if err != nil {
			return r, fmt.Errorf("invalid range %q: bad length: %w", arg, err)
		}
		r.Start = uint32(start)
		r.Length = uint32(length)
		return r, nil
	}

	start, err := strconv.ParseUint(rest, 0, 32)
	if err != nil {
		return r, fmt.Errorf("invalid range %q: bad start: %w", arg, err)
	}
	r.Start = uint32(start)
	return r, nil
}

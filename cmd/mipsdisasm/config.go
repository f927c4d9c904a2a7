package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// jobConfig describes a multi-range disassembly job, loaded with
// github.com/BurntSushi/toml as an alternative to listing ranges as positional
// arguments on the command line (supplements the spec's range-selection driver concern;
// the original C tool only ever took ranges as positional arguments).
type jobConfig struct {
	Input  string     `toml:"input"`
	Output string     `toml:"output"`
	Syntax string     `toml:"syntax"`
	Pseudo bool       `toml:"pseudo"`
	Ranges []jobRange `toml:"range"`
}

type jobRange struct {
	VAddr  string `toml:"vaddr"`
	Start  string `toml:"start"`
	Length string `toml:"length"`
}

func loadJobConfig(path string) (*jobConfig, error) {
	var cfg jobConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading job config %q: %w", path, err)
	}
	if cfg.Input == "" {
		return nil, fmt.Errorf("job config %q: missing input", path)
	}
	return &cfg, nil
}

func (c *jobConfig) codeRanges() ([]codeRange, error) {
	ranges := make([]codeRange, 0, len(c.Ranges))
	for _, jr := range c.Ranges {
		spec := jr.VAddr
		if jr.Start != "" {
			spec += ":" + jr.Start
			if jr.Length != "" {
				spec += "+" + jr.Length
			}
		}
		r, err := parseRange(spec)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	cli "github.com/urfave/cli/v2"

	"mipsdisasm/internal/disasm"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "mipsdisasm",
		Usage:   "MIPS III disassembler: labels, pseudo-instructions, symbol-resolved output",
		Version: version,
		Commands: []*cli.Command{
			disasmCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:      "disasm",
		Aliases:   []string{"d"},
		Usage:     "Disassemble a raw binary file",
		ArgsUsage: "FILE [RANGES...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output filename (default: stdout)"},
			&cli.StringFlag{Name: "syntax", Aliases: []string{"s"}, Value: "gas", Usage: "assembler syntax: gas or armips"},
			&cli.BoolFlag{Name: "pseudo", Aliases: []string{"p"}, Usage: "emit pseudoinstructions for related instructions"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "verbose progress output"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML job file describing input/output/ranges"},
		},
		Action: runDisasm,
	}
}

func runDisasm(c *cli.Context) error {
	logger := log.New(os.Stderr)
	if !c.Bool("verbose") {
		logger.SetLevel(log.WarnLevel)
	}

	var (
		inputFile  string
		outputFile string
		syntaxName string
		pseudo     bool
		ranges     []codeRange
	)

	if cfgPath := c.String("config"); cfgPath != "" {
		cfg, err := loadJobConfig(cfgPath)
		if err != nil {
			return cli.Exit(err, 1)
		}
		inputFile, outputFile, syntaxName, pseudo = cfg.Input, cfg.Output, cfg.Syntax, cfg.Pseudo
		ranges, err = cfg.codeRanges()
		if err != nil {
			return cli.Exit(err, 1)
		}
	} else {
		args := c.Args()
		if args.Len() < 1 {
			return cli.Exit("input file required", 1)
		}
		inputFile = args.First()
		outputFile = c.String("output")
		syntaxName = c.String("syntax")
		pseudo = c.Bool("pseudo")
		for _, arg := range args.Tail() {
			r, err := parseRange(arg)
			if err != nil {
				return cli.Exit(err, 1)
			}
			ranges = append(ranges, r)
		}
	}

	syntax, err := disasm.ParseSyntax(syntaxName)
	if err != nil {
		return cli.Exit(err, 1)
	}

	logger.Info("reading input file", "path", inputFile)
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return cli.Exit(fmt.Errorf("reading input file %q: %w", inputFile, err), 1)
	}

	if len(ranges) == 0 {
		ranges = []codeRange{{VAddr: 0, Start: 0, Length: uint32(len(data))}}
	}

	out := os.Stdout
	if outputFile != "" {
		logger.Info("opening output file", "path", outputFile)
		f, err := os.Create(outputFile)
		if err != nil {
			return cli.Exit(fmt.Errorf("opening output file %q: %w", outputFile, err), 1)
		}
		defer f.Close()
		out = f
	}

	state, err := disasm.NewState(syntax)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer state.Close()

	if err := writeHeader(out, syntax, outputFile); err != nil {
		return cli.Exit(err, 1)
	}

	for _, r := range ranges {
		logger.Info("disassembling range", "start", fmt.Sprintf("0x%X", r.Start), "end", fmt.Sprintf("0x%X", r.Start+r.Length), "vaddr", fmt.Sprintf("0x%08X", r.VAddr))

		end := r.Start + r.Length
		if int(end) > len(data) {
			return cli.Exit(fmt.Errorf("range %s exceeds file length %d", fmt.Sprintf("0x%X-0x%X", r.Start, end), len(data)), 1)
		}

		if err := state.AnalyzeRange(data[r.Start:end], r.VAddr, pseudo); err != nil {
			return cli.Exit(err, 1)
		}

		if err := writeRangeHeader(out, syntax, state.Symbols, r); err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintln(out)

		if err := state.Emit(out); err != nil {
			return cli.Exit(err, 1)
		}
	}

	if err := writeFooter(out, syntax); err != nil {
		return cli.Exit(err, 1)
	}

	logger.Info("done", "labels", state.Symbols.Len())
	return nil
}

// Command rseqconv converts between BSEQ binary sequence files (.brseq)
// and TSEQ textual listings (.rseq).
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/nwtools/rseqtool/rseq"
)

func main() {
	outFile := flag.String("o", "", "Output path (single input only; default: same name, opposite extension)")
	verbose := flag.Bool("v", false, "Print each file as it converts")
	versionFlag := flag.String("version", "", "Target version for text->binary conversion, e.g. 1.4 (default: newest supported)")
	lint := flag.Bool("lint", false, "Warn about out-of-range tempo and variable-set values")
	jobs := flag.Int("j", 4, "Maximum concurrent file conversions")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rseqconv [options] file...\n\nConverts BSEQ binary files (.brseq) to TSEQ text (.rseq) and back,\ndispatching on each input's extension.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rseqconv song.brseq\n")
		fmt.Fprintf(os.Stderr, "  rseqconv -o song.rseq song.brseq\n")
		fmt.Fprintf(os.Stderr, "  rseqconv -version 1.2 *.rseq\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	if *outFile != "" && flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: -o requires exactly one input file")
		os.Exit(1)
	}

	var targetVersion rseq.Version
	if *versionFlag != "" {
		v, err := parseVersionFlag(*versionFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: -version %v\n", err)
			os.Exit(1)
		}
		targetVersion = v
	} else {
		targetVersion = rseq.DefaultVersion
	}

	color := term.IsTerminal(int(os.Stderr.Fd()))

	var g errgroup.Group
	g.SetLimit(*jobs)

	var failed atomic.Bool
	for _, path := range flag.Args() {
		path := path
		g.Go(func() error {
			if err := convertOne(path, *outFile, targetVersion, *verbose, *lint); err != nil {
				reportError(color, path, err)
				failed.Store(true)
			}
			return nil // keep converting the rest of the batch regardless of this file's outcome
		})
	}
	_ = g.Wait()

	if failed.Load() {
		os.Exit(1)
	}
}

func parseVersionFlag(s string) (rseq.Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return rseq.Version{}, fmt.Errorf("expected MAJOR.MINOR, got %q", s)
	}
	maj, err := strconv.Atoi(major)
	if err != nil {
		return rseq.Version{}, fmt.Errorf("bad major version %q", major)
	}
	min, err := strconv.Atoi(minor)
	if err != nil {
		return rseq.Version{}, fmt.Errorf("bad minor version %q", minor)
	}
	if maj < 0 || maj > 255 || min < 0 || min > 255 {
		return rseq.Version{}, fmt.Errorf("version components must fit in a byte, got %q", s)
	}
	return rseq.Version{Major: uint8(maj), Minor: uint8(min)}, nil
}

func reportError(color bool, path string, err error) {
	if color {
		fmt.Fprintf(os.Stderr, "\x1b[31merror\x1b[0m: %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", path, err)
}

// convertOne dispatches on path's extension per spec: .brseq -> .rseq
// text, .rseq -> .brseq binary.
func convertOne(path, outOverride string, targetVersion rseq.Version, verbose, lint bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var outPath string
	var output []byte

	switch {
	case strings.HasSuffix(path, ".brseq"):
		f, err := rseq.DecodeBinary(data)
		if err != nil {
			return err
		}
		if lint {
			lintFile(path, f)
		}
		text, err := rseq.FormatText(f)
		if err != nil {
			return err
		}
		output = []byte(text)
		outPath = outOverride
		if outPath == "" {
			outPath = strings.TrimSuffix(path, ".brseq") + ".rseq"
		}

	case strings.HasSuffix(path, ".rseq"):
		f, err := rseq.ParseTextVersion(string(data), targetVersion)
		if err != nil {
			return err
		}
		if lint {
			lintFile(path, f)
		}
		bin, err := rseq.EncodeBinary(f)
		if err != nil {
			return err
		}
		output = bin
		outPath = outOverride
		if outPath == "" {
			outPath = strings.TrimSuffix(path, ".rseq") + ".brseq"
		}

	default:
		return fmt.Errorf("unrecognized extension (want .brseq or .rseq)")
	}

	if err := os.WriteFile(outPath, output, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	if verbose {
		fmt.Printf("%s -> %s\n", path, outPath)
	}
	return nil
}

// Bounds the reference runtime documents but the binary format itself
// does not reject: RSEQ.java's MIN_TEMPO/MAX_TEMPO, and the 16
// player-local plus 16 global variable slots addressable by _v and the
// MMLEX arithmetic/comparison opcodes.
const (
	minTempo         = 0
	maxTempo         = 1023
	maxVariableIndex = 31
)

// lintFile prints supplemental range warnings for tempo and variable-index
// operands that fall outside the ranges the reference runtime honors.
func lintFile(path string, f *rseq.BsearFile) {
	for _, t := range f.Tracks {
		name := "<anonymous>"
		if len(t.Names) > 0 {
			name = t.Names[0]
		}
		walkLint(path, name, t.Instructions)
	}
}

func walkLint(path, track string, instrs []*rseq.Instruction) {
	for _, instr := range instrs {
		switch {
		case instr.Mnemonic == "tempo" && len(instr.Operands) == 1:
			v := instr.Operands[0].S16
			if v < minTempo || v > maxTempo {
				fmt.Fprintf(os.Stderr, "%s: warning: track %s: tempo %d outside the supported %d-%d BPM range\n", path, track, v, minTempo, maxTempo)
			}
		case instr.Mnemonic == "_v" && len(instr.Operands) >= 1:
			checkVariableIndex(path, track, instr.Mnemonic, instr.Operands[0].U8)
		case instr.Category == rseq.CategoryMmlEx && instr.Mnemonic != "userproc" && len(instr.Operands) >= 1:
			checkVariableIndex(path, track, instr.Mnemonic, instr.Operands[0].U8)
		}
		for _, op := range instr.Operands {
			if op.Kind == rseq.ValNested {
				walkLint(path, track, []*rseq.Instruction{op.Nested})
			}
		}
	}
}

func checkVariableIndex(path, track, mnemonic string, idx uint8) {
	if idx > maxVariableIndex {
		fmt.Fprintf(os.Stderr, "%s: warning: track %s: %s variable index %d exceeds the %d player/global variables\n", path, track, mnemonic, idx, maxVariableIndex+1)
	}
}

// opcodes.go - static, table-driven MML/MMLEX opcode grammar

package rseq

import "strconv"

// OperandType is the schema-level operand descriptor a grammar row uses
// to say what to read, as distinct from the runtime Value a read produces
// (§3 OperandType).
type OperandType uint8

const (
	SchemaNone OperandType = iota
	SchemaU8
	SchemaS16
	SchemaVarlen
	SchemaVMIDI    // wire-identical to Varlen; no current row uses it
	SchemaU24      // control-flow displacement, resolved against track_base
	SchemaRandom   // S16 min, S16 max; no row uses it (_r lists two SchemaS16)
	SchemaVariable // U8 var index; no row uses it (_v lists SchemaU8)
)

// opcodeRow is one entry of the static MML/MMLEX grammar table.
type opcodeRow struct {
	Opcode   byte
	Mnemonic string
	Operands []OperandType
	IsPrefix bool // §3 PrefixChain: read own operands, then recurse into one nested instruction
}

// mmlTable and mmlByMnemonic are derived from a single source of truth
// (mmlRows) so the byte->mnemonic and mnemonic->byte directions can never
// drift, per §9's design note.
var (
	mmlTable      map[byte]opcodeRow
	mmlByMnemonic map[string]opcodeRow
	mmlexTable    map[byte]opcodeRow
	mmlexByName   map[string]opcodeRow
	pitchTable    [126]string
	pitchByName   map[string]byte
)

var mmlRows = []opcodeRow{
	{0x80, "wait", []OperandType{SchemaVarlen}, false},
	{0x81, "prg", []OperandType{SchemaVarlen}, false},

	{0x88, "opentrack", []OperandType{SchemaU8, SchemaU24}, false},
	{0x89, "jump", []OperandType{SchemaU24}, false},
	{0x8A, "call", []OperandType{SchemaU24}, false},

	{0xA0, "_r", []OperandType{SchemaS16, SchemaS16}, true},
	{0xA1, "_v", []OperandType{SchemaU8}, true},
	{0xA2, "_if", nil, true},
	{0xA3, "_t", []OperandType{SchemaS16}, true},
	{0xA4, "_tr", []OperandType{SchemaS16}, true},
	{0xA5, "_tv", []OperandType{SchemaS16}, true},

	// U8 parameter set, §4.4 / InstructionEnDecoder.java.
	{0xB0, "timebase", []OperandType{SchemaU8}, false},
	{0xB1, "env_hold", []OperandType{SchemaU8}, false},
	{0xB2, "monophonic_", []OperandType{SchemaU8}, false},
	{0xB3, "velocity_range", []OperandType{SchemaU8}, false},
	{0xB4, "biquad_type", []OperandType{SchemaU8}, false},
	{0xB5, "biquad_value", []OperandType{SchemaU8}, false},

	{0xC0, "pan", []OperandType{SchemaU8}, false},
	{0xC1, "volume", []OperandType{SchemaU8}, false},
	{0xC2, "main_volume", []OperandType{SchemaU8}, false},
	{0xC3, "transpose", []OperandType{SchemaU8}, false},
	{0xC4, "pitch_bend", []OperandType{SchemaU8}, false},
	{0xC5, "bend_range", []OperandType{SchemaU8}, false},
	{0xC6, "prio", []OperandType{SchemaU8}, false},
	{0xC7, "notewait_", []OperandType{SchemaU8}, false},
	{0xC8, "tie", []OperandType{SchemaU8}, false},
	{0xC9, "porta", []OperandType{SchemaU8}, false},
	{0xCA, "mod_depth", []OperandType{SchemaU8}, false},
	{0xCB, "mod_speed", []OperandType{SchemaU8}, false},
	{0xCC, "mod_type", []OperandType{SchemaU8}, false},
	{0xCD, "mod_range", []OperandType{SchemaU8}, false},
	{0xCE, "porta_", []OperandType{SchemaU8}, false},
	{0xCF, "porta_time", []OperandType{SchemaU8}, false},
	{0xD0, "attack", []OperandType{SchemaU8}, false},
	{0xD1, "decay", []OperandType{SchemaU8}, false},
	{0xD2, "sustain", []OperandType{SchemaU8}, false},
	{0xD3, "release", []OperandType{SchemaU8}, false},
	{0xD4, "loop_start", []OperandType{SchemaU8}, false},
	{0xD5, "volume2", []OperandType{SchemaU8}, false},
	{0xD6, "printvar", []OperandType{SchemaU8}, false},
	{0xD7, "span", []OperandType{SchemaU8}, false},
	{0xD8, "lpf_cutoff", []OperandType{SchemaU8}, false},
	{0xD9, "fxsend_a", []OperandType{SchemaU8}, false},
	{0xDA, "fxsend_b", []OperandType{SchemaU8}, false},
	{0xDB, "mainsend", []OperandType{SchemaU8}, false},
	{0xDC, "init_pan", []OperandType{SchemaU8}, false},
	{0xDD, "mute", []OperandType{SchemaU8}, false},
	{0xDE, "fxsend_c", []OperandType{SchemaU8}, false},
	{0xDF, "damper_", []OperandType{SchemaU8}, false},

	{0xE0, "mod_delay", []OperandType{SchemaS16}, false},
	{0xE1, "tempo", []OperandType{SchemaS16}, false},
	{0xE3, "sweep_pitch", []OperandType{SchemaS16}, false},

	{0xF0, "ex_command", nil, false}, // dispatched into mmlexTable by the decoder/encoder

	{0xFB, "env_reset", nil, false},
	{0xFC, "loop_end", nil, false},
	{0xFD, "ret", nil, false},
	{0xFE, "alloctrack", []OperandType{SchemaS16}, false},
	{0xFF, "fin", nil, false},
}

var mmlexRows = []opcodeRow{
	{0x80, "setvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x81, "addvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x82, "subvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x83, "mulvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x84, "divvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x85, "shiftvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x86, "randvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x87, "andvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x88, "orvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x89, "xorvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x8A, "notvar", []OperandType{SchemaU8, SchemaS16}, false},
	{0x8B, "modvar", []OperandType{SchemaU8, SchemaS16}, false},

	{0x90, "cmp_eq", []OperandType{SchemaU8, SchemaS16}, false},
	{0x91, "cmp_ge", []OperandType{SchemaU8, SchemaS16}, false},
	{0x92, "cmp_gt", []OperandType{SchemaU8, SchemaS16}, false},
	{0x93, "cmp_le", []OperandType{SchemaU8, SchemaS16}, false},
	{0x94, "cmp_lt", []OperandType{SchemaU8, SchemaS16}, false},
	{0x95, "cmp_ne", []OperandType{SchemaU8, SchemaS16}, false},

	{0xE0, "userproc", []OperandType{SchemaS16}, false},
}

// noteOperandSchema is the fixed U8 velocity + VARLEN gate payload every
// note opcode (0x00-0x7D) carries, per §4.4's note row and Note{pitch,
// velocity, gate}.
var noteOperandSchema = []OperandType{SchemaU8, SchemaVarlen}

// prefixMnemonics is the closed set of mnemonics that carry a nested
// instruction rather than standing alone.
var prefixMnemonics = map[string]bool{
	"_r": true, "_v": true, "_if": true, "_t": true, "_tr": true, "_tv": true,
}

func init() {
	mmlTable = make(map[byte]opcodeRow, len(mmlRows))
	mmlByMnemonic = make(map[string]opcodeRow, len(mmlRows))
	for _, row := range mmlRows {
		mmlTable[row.Opcode] = row
		mmlByMnemonic[row.Mnemonic] = row
	}

	mmlexTable = make(map[byte]opcodeRow, len(mmlexRows))
	mmlexByName = make(map[string]opcodeRow, len(mmlexRows))
	for _, row := range mmlexRows {
		mmlexTable[row.Opcode] = row
		mmlexByName[row.Mnemonic] = row
	}

	buildPitchTable()
}

// buildPitchTable derives the 126-entry valid note-name table (opcodes
// 0x00-0x7D) from the reference SDK's Note enum declaration order. See
// DESIGN.md for why the boundary sits at "fn9" rather than the "fs9" the
// glossary prose names.
func buildPitchTable() {
	semitones := []string{"cn", "cs", "dn", "ds", "en", "fn", "fs", "gn", "gs", "an", "as", "bn"}
	pitchByName = make(map[string]byte, 126)

	idx := 0
	octaveSuffix := func(octave int) string {
		if octave < 0 {
			return "m" + strconv.Itoa(-octave)
		}
		return strconv.Itoa(octave)
	}
	for octave := -1; octave <= 9 && idx < 126; octave++ {
		for _, s := range semitones {
			if idx >= 126 {
				break
			}
			name := s + octaveSuffix(octave)
			pitchTable[idx] = name
			pitchByName[name] = byte(idx)
			idx++
		}
	}
}

// pitchName returns the note mnemonic for opcode b, or false if b is
// outside the 126-entry valid range (0x7E, 0x7F are reserved).
func pitchName(b byte) (string, bool) {
	if b >= 126 {
		return "", false
	}
	return pitchTable[b], true
}

// pitchOpcode is the inverse of pitchName.
func pitchOpcode(name string) (byte, bool) {
	b, ok := pitchByName[name]
	return b, ok
}

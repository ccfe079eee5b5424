// decoder.go - binary DATA payload to Instruction-tree decoding, §4.5

package rseq

import (
	"fmt"
	"sort"
)

// Track is one decoded entry point: a label's starting offset, every name
// aliasing that offset, and the instruction chunk reachable from it up to
// (and including) its terminating fin/ret/jump.
type Track struct {
	Offset       int // relative to the DATA payload start
	Names        []string
	Instructions []*Instruction
}

// DecodeResult is everything Decode produces: the file's version, its
// full label table (including any synthetic labels the decoder had to
// mint for jump/call targets with no declared name), and its tracks in
// ascending offset order.
type DecodeResult struct {
	Version Version
	Labels  *LabelTable
	Tracks  []Track
}

// decodeState carries the mutable bookkeeping a single Decode pass needs:
// the worklist of offsets still to chunk-decode, which offsets have been
// visited, and the synthetic names minted for offsets no declared label
// reaches.
type decodeState struct {
	r            *ByteReader
	payloadStart int // file offset of the DATA payload, for Seek only
	labels       *LabelTable
	synthetic    map[int]string
	visited      map[int]bool
	queue        []int
	queuedSet    map[int]bool
}

// resolve returns the display name for a data offset (already resolved
// against its track base, so payload-relative like Label.DataOffset)
// reached via a control-flow operand, minting and queuing a
// symb_0x<hex> synthetic label the first time it is referenced with no
// declared name.
func (s *decodeState) resolve(rel int) string {
	if ls, ok := s.labels.ByOffset(rel); ok && len(ls) > 0 {
		return ls[0].Name
	}
	if name, ok := s.synthetic[rel]; ok {
		s.enqueue(rel)
		return name
	}
	name := fmt.Sprintf("symb_0x%x", rel)
	s.synthetic[rel] = name
	s.enqueue(rel)
	return name
}

func (s *decodeState) enqueue(rel int) {
	if s.visited[rel] || s.queuedSet[rel] {
		return
	}
	s.queuedSet[rel] = true
	s.queue = append(s.queue, rel)
}

// Decode parses a complete BSEQ image into a DecodeResult.
func Decode(data []byte) (*DecodeResult, error) {
	r := NewByteReader(data)
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	dataHdr, err := readDataSectionHeader(r, hdr.DataOffset)
	if err != nil {
		return nil, err
	}

	labels := NewLabelTable(nil)
	if hdr.LabelSize > 0 {
		labelHdr, err := readLabelSectionHeader(r, hdr.LabelOffset)
		if err != nil {
			return nil, err
		}
		labels, err = readLabelTable(r, labelHdr)
		if err != nil {
			return nil, err
		}
	}

	state := &decodeState{
		r:            r,
		payloadStart: dataHdr.PayloadStart,
		labels:       labels,
		synthetic:    make(map[int]string),
		visited:      make(map[int]bool),
		queuedSet:    make(map[int]bool),
	}
	for _, l := range labels.SortedByOffset() {
		state.enqueue(l.DataOffset)
	}

	var tracks []Track
	for len(state.queue) > 0 {
		rel := state.queue[0]
		state.queue = state.queue[1:]
		if state.visited[rel] {
			continue
		}
		state.visited[rel] = true

		instrs, err := decodeChunk(r, state.payloadStart, rel, state)
		if err != nil {
			return nil, err
		}

		var names []string
		if ls, ok := labels.ByOffset(rel); ok {
			for _, l := range ls {
				names = append(names, l.Name)
			}
		}
		if name, ok := state.synthetic[rel]; ok {
			names = append(names, name)
		}
		tracks = append(tracks, Track{Offset: rel, Names: names, Instructions: instrs})
	}

	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].Offset < tracks[j].Offset })

	for rel, name := range state.synthetic {
		labels.Labels = append(labels.Labels, Label{Name: name, DataOffset: rel})
	}
	if len(state.synthetic) > 0 {
		labels = NewLabelTable(labels.Labels)
	}

	return &DecodeResult{Version: hdr.Version, Labels: labels, Tracks: tracks}, nil
}

// decodeChunk decodes instructions starting at payloadStart+trackBase
// until a fin, ret, or jump terminates the chunk (§4.5 step 5).
// trackBase is the data offset of the label this chunk was entered
// from; every U24 operand decoded within the chunk is added to it, per
// the GLOSSARY's "track base" definition.
func decodeChunk(r *ByteReader, payloadStart, trackBase int, state *decodeState) ([]*Instruction, error) {
	r.Seek(payloadStart + trackBase)
	var instrs []*Instruction
	for {
		instr, err := decodeInstruction(r, trackBase, state)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, instr)
		if isChunkTerminator(instr.Mnemonic) {
			return instrs, nil
		}
	}
}

// decodeInstruction decodes exactly one instruction, including the
// recursive nested instruction a prefix opcode carries and the one-level
// dispatch ex_command performs into the MMLEX table.
func decodeInstruction(r *ByteReader, trackBase int, state *decodeState) (*Instruction, error) {
	opcode, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	if opcode <= 0x7D {
		name, ok := pitchName(opcode)
		if !ok {
			return nil, &UnknownOpcodeError{Byte: opcode, At: r.Position() - 1}
		}
		operands, err := readOperands(r, trackBase, noteOperandSchema, state)
		if err != nil {
			return nil, err
		}
		return &Instruction{Category: CategoryNote, Mnemonic: name, Operands: operands}, nil
	}

	if opcode == 0xF0 {
		exOp, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		row, ok := mmlexTable[exOp]
		if !ok {
			return nil, &UnknownOpcodeError{Byte: exOp, At: r.Position() - 1}
		}
		operands, err := readOperands(r, trackBase, row.Operands, state)
		if err != nil {
			return nil, err
		}
		return &Instruction{Category: CategoryMmlEx, Mnemonic: row.Mnemonic, Operands: operands}, nil
	}

	row, ok := mmlTable[opcode]
	if !ok {
		return nil, &UnknownOpcodeError{Byte: opcode, At: r.Position() - 1}
	}

	operands, err := readOperands(r, trackBase, row.Operands, state)
	if err != nil {
		return nil, err
	}

	if row.IsPrefix {
		nested, err := decodeInstruction(r, trackBase, state)
		if err != nil {
			return nil, err
		}
		operands = append(operands, nestedValue(nested))
	}

	return &Instruction{Category: CategoryMml, Mnemonic: row.Mnemonic, Operands: operands}, nil
}

func readOperands(r *ByteReader, trackBase int, schema []OperandType, state *decodeState) ([]Value, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	out := make([]Value, 0, len(schema))
	for _, kind := range schema {
		switch kind {
		case SchemaU8:
			v, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			out = append(out, u8Value(v))
		case SchemaS16:
			v, err := r.ReadI16()
			if err != nil {
				return nil, err
			}
			out = append(out, s16Value(v))
		case SchemaVarlen, SchemaVMIDI:
			v, err := r.ReadVarlen()
			if err != nil {
				return nil, err
			}
			out = append(out, varlenValue(v))
		case SchemaU24:
			delta, err := r.ReadU24()
			if err != nil {
				return nil, err
			}
			abs := trackBase + int(delta)
			out = append(out, labelRefValue(state.resolve(abs)))
		default:
			return nil, fmt.Errorf("rseq: unhandled operand schema %d", kind)
		}
	}
	return out, nil
}

// encoder.go - Instruction-tree to binary encoding, two-pass, §4.6

package rseq

import "fmt"

// EncodeFile lays out the given tracks into a complete BSEQ image: a
// sizing pass assigns each track's offset and the size every operand
// needs, then an emit pass writes bytes and back-patches control-flow
// operands against those offsets.
func EncodeFile(version Version, tracks []Track) ([]byte, error) {
	payload, labels, err := encodePayload(tracks)
	if err != nil {
		return nil, err
	}

	var labelBytes []byte
	if len(labels) > 0 {
		labelBytes = encodeLabelSection(labels)
	}

	dataSize := uint32(sectionHeaderLen + len(payload))
	dataOffset := uint32(writtenHeaderSize)
	labelOffset := dataOffset + dataSize
	sectionCount := uint16(1)
	fileSize := uint32(writtenHeaderSize) + dataSize
	if len(labelBytes) > 0 {
		sectionCount = 2
		fileSize += uint32(len(labelBytes))
	}

	out := make([]byte, fileSize)
	copy(out[0:4], fileSignature)
	putU16(out[4:6], BOM)
	putU16(out[6:8], version.Word())
	putU32(out[8:12], fileSize)
	putU16(out[12:14], writtenHeaderSize)
	putU16(out[14:16], sectionCount)
	putU32(out[16:20], dataOffset)
	putU32(out[20:24], dataSize)
	if len(labelBytes) > 0 {
		putU32(out[24:28], labelOffset)
		putU32(out[28:32], uint32(len(labelBytes)))
	}

	cursor := int(dataOffset)
	copy(out[cursor:cursor+4], dataSectionTag)
	putU32(out[cursor+4:cursor+8], dataSize)
	// out[cursor+8:cursor+12] reserved base-offset field, left zero
	copy(out[cursor+12:], payload)

	if len(labelBytes) > 0 {
		copy(out[labelOffset:], labelBytes)
	}

	return out, nil
}

// encodePayload runs both encoding passes over tracks in file order and
// returns the packed DATA payload plus the Label entries its names
// resolved to.
func encodePayload(tracks []Track) ([]byte, []Label, error) {
	type sizedTrack struct {
		track  Track
		offset int
		size   int
	}

	nameToOffset := make(map[string]int)
	sized := make([]sizedTrack, 0, len(tracks))
	cursor := 0
	for _, t := range tracks {
		size, err := chunkSize(t.Instructions)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range t.Names {
			if _, dup := nameToOffset[n]; dup {
				return nil, nil, &DuplicateLabelError{Name: n}
			}
			nameToOffset[n] = cursor
		}
		sized = append(sized, sizedTrack{track: t, offset: cursor, size: size})
		cursor += size
	}

	payload := make([]byte, cursor)
	for _, st := range sized {
		buf, err := emitChunk(st.track.Instructions, st.offset, nameToOffset)
		if err != nil {
			return nil, nil, err
		}
		copy(payload[st.offset:], buf)
	}

	var labels []Label
	for _, st := range sized {
		for _, n := range st.track.Names {
			labels = append(labels, Label{Name: n, DataOffset: st.offset})
		}
	}

	return payload, labels, nil
}

// chunkSize returns the encoded byte length of a sequence of
// instructions.
func chunkSize(instrs []*Instruction) (int, error) {
	total := 0
	for _, instr := range instrs {
		n, err := instructionSize(instr)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func instructionSize(instr *Instruction) (int, error) {
	switch instr.Category {
	case CategoryNote:
		n, err := operandsSize(noteOperandSchema, instr.Operands)
		if err != nil {
			return 0, err
		}
		return 1 + n, nil
	case CategoryMmlEx:
		row, ok := mmlexByName[instr.Mnemonic]
		if !ok {
			return 0, fmt.Errorf("rseq: unknown MMLEX mnemonic %q", instr.Mnemonic)
		}
		size := 2 // ex_command opcode byte + the MMLEX opcode byte
		n, err := operandsSize(row.Operands, instr.Operands)
		if err != nil {
			return 0, err
		}
		return size + n, nil
	default:
		row, ok := mmlByMnemonic[instr.Mnemonic]
		if !ok {
			return 0, fmt.Errorf("rseq: unknown mnemonic %q", instr.Mnemonic)
		}
		size := 1
		ownCount := len(row.Operands)
		n, err := operandsSize(row.Operands, instr.Operands[:ownCount])
		if err != nil {
			return 0, err
		}
		size += n
		if row.IsPrefix {
			nested := instr.Operands[ownCount].Nested
			nestedSize, err := instructionSize(nested)
			if err != nil {
				return 0, err
			}
			size += nestedSize
		}
		return size, nil
	}
}

func operandsSize(schema []OperandType, values []Value) (int, error) {
	total := 0
	for i, kind := range schema {
		switch kind {
		case SchemaU8:
			total++
		case SchemaS16:
			total += 2
		case SchemaU24:
			total += 3
		case SchemaVarlen, SchemaVMIDI:
			total += len(WriteVarlen(values[i].Varlen))
		default:
			return 0, fmt.Errorf("rseq: unhandled operand schema %d", kind)
		}
	}
	return total, nil
}

// emitChunk writes a sequence of instructions, resolving every LabelRef
// operand against nameToOffset. trackBase is the data offset of the
// label this chunk starts at; every U24 operand is back-patched as an
// offset from it, per the GLOSSARY's "track base" definition.
func emitChunk(instrs []*Instruction, trackBase int, nameToOffset map[string]int) ([]byte, error) {
	var out []byte
	for _, instr := range instrs {
		b, err := emitInstruction(instr, trackBase, nameToOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func emitInstruction(instr *Instruction, trackBase int, nameToOffset map[string]int) ([]byte, error) {
	switch instr.Category {
	case CategoryNote:
		opcode, ok := pitchOpcode(instr.Mnemonic)
		if !ok {
			return nil, fmt.Errorf("rseq: unknown note %q", instr.Mnemonic)
		}
		operands, err := emitOperands(noteOperandSchema, instr.Operands, trackBase, nameToOffset)
		if err != nil {
			return nil, err
		}
		return append([]byte{opcode}, operands...), nil

	case CategoryMmlEx:
		row, ok := mmlexByName[instr.Mnemonic]
		if !ok {
			return nil, fmt.Errorf("rseq: unknown MMLEX mnemonic %q", instr.Mnemonic)
		}
		operands, err := emitOperands(row.Operands, instr.Operands, trackBase, nameToOffset)
		if err != nil {
			return nil, err
		}
		out := []byte{0xF0, row.Opcode}
		return append(out, operands...), nil

	default:
		row, ok := mmlByMnemonic[instr.Mnemonic]
		if !ok {
			return nil, fmt.Errorf("rseq: unknown mnemonic %q", instr.Mnemonic)
		}
		ownCount := len(row.Operands)
		operands, err := emitOperands(row.Operands, instr.Operands[:ownCount], trackBase, nameToOffset)
		if err != nil {
			return nil, err
		}
		out := append([]byte{row.Opcode}, operands...)
		if row.IsPrefix {
			nested := instr.Operands[ownCount].Nested
			nb, err := emitInstruction(nested, trackBase, nameToOffset)
			if err != nil {
				return nil, err
			}
			out = append(out, nb...)
		}
		return out, nil
	}
}

func emitOperands(schema []OperandType, values []Value, trackBase int, nameToOffset map[string]int) ([]byte, error) {
	var out []byte
	for i, kind := range schema {
		v := values[i]
		switch kind {
		case SchemaU8:
			out = append(out, v.U8)
		case SchemaS16:
			out = append(out, byte(uint16(v.S16)>>8), byte(v.S16))
		case SchemaVarlen, SchemaVMIDI:
			out = append(out, WriteVarlen(v.Varlen)...)
		case SchemaU24:
			target, ok := nameToOffset[v.LabelRef]
			if !ok {
				return nil, &UndefinedLabelError{Name: v.LabelRef}
			}
			delta := target - trackBase
			if delta < 0 || delta > 0xFFFFFF {
				return nil, &U24OverflowError{Delta: int64(delta)}
			}
			out = append(out, byte(delta>>16), byte(delta>>8), byte(delta))
		default:
			return nil, fmt.Errorf("rseq: unhandled operand schema %d", kind)
		}
	}
	return out, nil
}

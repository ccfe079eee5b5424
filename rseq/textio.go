// textio.go - TSEQ textual listing: parsing and formatting, §4.7/§6

package rseq

import (
	"fmt"
	"strconv"
	"strings"
)

// parseTracks parses a TSEQ listing into tracks ready for EncodeFile.
// Label lines accumulate as aliases of the following instruction's
// offset; trailing comments (";") and forward/backward jump annotations
// are stripped and ignored on input, since they are purely informational
// output of FormatText.
func parseTracks(src string) ([]Track, error) {
	var tracks []Track
	var pendingNames, curNames []string
	var curInstrs []*Instruction
	seenNames := make(map[string]bool)

	flush := func() {
		if len(curInstrs) > 0 || len(curNames) > 0 {
			tracks = append(tracks, Track{Names: curNames, Instructions: curInstrs})
		}
		curNames = nil
		curInstrs = nil
	}

	for lineNo, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name, ok := labelLineName(line); ok {
			if seenNames[name] {
				return nil, &DuplicateLabelError{Name: name}
			}
			seenNames[name] = true
			if len(curInstrs) > 0 {
				flush()
			}
			pendingNames = append(pendingNames, name)
			continue
		}

		if curNames == nil && len(pendingNames) > 0 {
			curNames = pendingNames
			pendingNames = nil
		}
		instr, err := parseInstructionText(line, lineNo+1)
		if err != nil {
			return nil, err
		}
		curInstrs = append(curInstrs, instr)
	}
	flush()

	return tracks, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func labelLineName(line string) (string, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	name := line[:len(line)-1]
	if name == "" || strings.ContainsAny(name, " \t,:") {
		return "", false
	}
	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return "", false
		}
		if !isLetter && !isDigit {
			return "", false
		}
	}
	return name, true
}

// parseInstructionText parses one instruction, recursing through a
// colon-delimited chain of prefix opcodes (e.g. "_tr 16: _r 1, 10: volume 100").
func parseInstructionText(line string, lineNo int) (*Instruction, error) {
	head, nestedPart, hasNested := strings.Cut(line, ":")
	head = strings.TrimSpace(head)
	nestedPart = strings.TrimSpace(nestedPart)

	mnemonic := head
	operandText := ""
	if i := strings.IndexAny(head, " \t"); i >= 0 {
		mnemonic = head[:i]
		operandText = strings.TrimSpace(head[i:])
	}

	var operandTexts []string
	if operandText != "" {
		for _, p := range strings.Split(operandText, ",") {
			operandTexts = append(operandTexts, strings.TrimSpace(p))
		}
	}

	if _, ok := pitchOpcode(mnemonic); ok {
		if hasNested {
			return nil, &TextParseError{Line: lineNo, Message: "note opcode does not take a nested instruction"}
		}
		if len(operandTexts) != len(noteOperandSchema) {
			return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%s expects %d operand(s)", mnemonic, len(noteOperandSchema))}
		}
		values := make([]Value, 0, len(noteOperandSchema))
		for i, kind := range noteOperandSchema {
			v, err := parseOperandValue(kind, operandTexts[i], lineNo)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &Instruction{Category: CategoryNote, Mnemonic: mnemonic, Operands: values}, nil
	}

	if row, ok := mmlByMnemonic[mnemonic]; ok {
		if len(operandTexts) != len(row.Operands) {
			return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%s expects %d operand(s)", mnemonic, len(row.Operands))}
		}
		values := make([]Value, 0, len(row.Operands)+1)
		for i, kind := range row.Operands {
			v, err := parseOperandValue(kind, operandTexts[i], lineNo)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if row.IsPrefix {
			if !hasNested {
				return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%s requires a nested instruction", mnemonic)}
			}
			nested, err := parseInstructionText(nestedPart, lineNo)
			if err != nil {
				return nil, err
			}
			values = append(values, nestedValue(nested))
		} else if hasNested {
			return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%s does not take a nested instruction", mnemonic)}
		}
		return &Instruction{Category: CategoryMml, Mnemonic: mnemonic, Operands: values}, nil
	}

	if row, ok := mmlexByName[mnemonic]; ok {
		if hasNested {
			return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%s does not take a nested instruction", mnemonic)}
		}
		if len(operandTexts) != len(row.Operands) {
			return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%s expects %d operand(s)", mnemonic, len(row.Operands))}
		}
		values := make([]Value, 0, len(row.Operands))
		for i, kind := range row.Operands {
			v, err := parseOperandValue(kind, operandTexts[i], lineNo)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &Instruction{Category: CategoryMmlEx, Mnemonic: mnemonic, Operands: values}, nil
	}

	return nil, &TextParseError{Line: lineNo, Message: fmt.Sprintf("unknown mnemonic %q", mnemonic)}
}

func parseOperandValue(kind OperandType, text string, lineNo int) (Value, error) {
	switch kind {
	case SchemaU8:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 || n > 0xFF {
			return Value{}, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%q is not a valid u8", text)}
		}
		return u8Value(uint8(n)), nil
	case SchemaS16:
		n, err := strconv.Atoi(text)
		if err != nil || n < -32768 || n > 32767 {
			return Value{}, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%q is not a valid s16", text)}
		}
		return s16Value(int16(n)), nil
	case SchemaVarlen, SchemaVMIDI:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return Value{}, &TextParseError{Line: lineNo, Message: fmt.Sprintf("%q is not a valid varlen value", text)}
		}
		return varlenValue(uint32(n)), nil
	case SchemaU24:
		if text == "" {
			return Value{}, &TextParseError{Line: lineNo, Message: "expected a label name"}
		}
		return labelRefValue(text), nil
	default:
		return Value{}, &TextParseError{Line: lineNo, Message: fmt.Sprintf("unhandled operand schema %d", kind)}
	}
}

// formatTracks renders tracks as a TSEQ listing, annotating every
// control-flow operand with its direction and byte distance from the
// start of the sequence it appears in.
func formatTracks(tracks []Track, nameToOffset map[string]int) string {
	var b strings.Builder
	for _, t := range tracks {
		for _, n := range t.Names {
			b.WriteString(n)
			b.WriteString(":\n")
		}
		for _, instr := range t.Instructions {
			text, labelRef := buildLine(instr)
			b.WriteString("\t")
			b.WriteString(text)
			if labelRef != "" {
				if target, ok := nameToOffset[labelRef]; ok {
					delta := target - t.Offset
					if delta >= 0 {
						fmt.Fprintf(&b, "  ; forward jump by %d bytes relative to the start offset of this sequence", delta)
					} else {
						fmt.Fprintf(&b, "  ; backward jump by %d bytes relative to the start offset of this sequence", -delta)
					}
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// buildLine renders one instruction (recursing through any prefix chain)
// and reports the name of a label it references, if any, so the caller
// can annotate the line with a jump-distance comment. A label among the
// instruction's own operands wins; a nested instruction's label is
// reported only when the outer one has none.
func buildLine(instr *Instruction) (string, string) {
	switch instr.Category {
	case CategoryNote:
		parts := make([]string, len(instr.Operands))
		for i, v := range instr.Operands {
			parts[i] = formatValue(v)
		}
		text := instr.Mnemonic
		if len(parts) > 0 {
			text += " " + strings.Join(parts, ", ")
		}
		return text, ""

	case CategoryMmlEx:
		row := mmlexByName[instr.Mnemonic]
		parts := make([]string, len(instr.Operands))
		for i, v := range instr.Operands {
			parts[i] = formatValue(v)
		}
		text := instr.Mnemonic
		if len(parts) > 0 {
			text += " " + strings.Join(parts, ", ")
		}
		_ = row
		return text, ""

	default:
		row := mmlByMnemonic[instr.Mnemonic]
		ownCount := len(row.Operands)
		parts := make([]string, ownCount)
		labelRef := ""
		for i := 0; i < ownCount; i++ {
			v := instr.Operands[i]
			parts[i] = formatValue(v)
			if v.Kind == ValLabelRef {
				labelRef = v.LabelRef
			}
		}
		text := instr.Mnemonic
		if ownCount > 0 {
			text += " " + strings.Join(parts, ", ")
		}
		if row.IsPrefix {
			nested := instr.Operands[ownCount].Nested
			nestedText, nestedLabelRef := buildLine(nested)
			text += ": " + nestedText
			if labelRef == "" {
				labelRef = nestedLabelRef
			}
		}
		return text, labelRef
	}
}

func formatValue(v Value) string {
	switch v.Kind {
	case ValU8:
		return strconv.Itoa(int(v.U8))
	case ValS16:
		return strconv.Itoa(int(v.S16))
	case ValVarlen:
		return strconv.Itoa(int(v.Varlen))
	case ValLabelRef:
		return v.LabelRef
	default:
		return ""
	}
}

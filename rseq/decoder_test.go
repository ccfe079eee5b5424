package rseq

import "testing"

func TestDecodeInstruction_Note(t *testing.T) {
	r := NewByteReader([]byte{0x00, 0x7F, 0x60}) // cnm1, velocity 127, gate 96
	state := &decodeState{labels: NewLabelTable(nil), synthetic: map[int]string{}, visited: map[int]bool{}, queuedSet: map[int]bool{}}
	instr, err := decodeInstruction(r, 0, state)
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.Category != CategoryNote || instr.Mnemonic != "cnm1" {
		t.Errorf("got %+v, want note cnm1", instr)
	}
	if len(instr.Operands) != 2 || instr.Operands[0].U8 != 127 || instr.Operands[1].Varlen != 96 {
		t.Errorf("operands = %+v, want velocity 127, gate 96", instr.Operands)
	}
}

func TestDecodeInstruction_ReservedNoteByte(t *testing.T) {
	r := NewByteReader([]byte{0x7E})
	state := &decodeState{labels: NewLabelTable(nil), synthetic: map[int]string{}, visited: map[int]bool{}, queuedSet: map[int]bool{}}
	_, err := decodeInstruction(r, 0, state)
	if _, ok := err.(*UnknownOpcodeError); !ok {
		t.Fatalf("expected *UnknownOpcodeError for reserved 0x7E, got %T (%v)", err, err)
	}
}

func TestDecodeInstruction_UnknownOpcode(t *testing.T) {
	r := NewByteReader([]byte{0x86}) // unassigned MML byte
	state := &decodeState{labels: NewLabelTable(nil), synthetic: map[int]string{}, visited: map[int]bool{}, queuedSet: map[int]bool{}}
	_, err := decodeInstruction(r, 0, state)
	if _, ok := err.(*UnknownOpcodeError); !ok {
		t.Fatalf("expected *UnknownOpcodeError, got %T (%v)", err, err)
	}
}

func TestDecodeInstruction_ExCommand(t *testing.T) {
	r := NewByteReader([]byte{0xF0, 0x90, 0x03, 0x00, 0x0A}) // ex_command cmp_eq var3, 10
	state := &decodeState{labels: NewLabelTable(nil), synthetic: map[int]string{}, visited: map[int]bool{}, queuedSet: map[int]bool{}}
	instr, err := decodeInstruction(r, 0, state)
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.Category != CategoryMmlEx || instr.Mnemonic != "cmp_eq" {
		t.Fatalf("got %+v", instr)
	}
	if instr.Operands[0].U8 != 3 || instr.Operands[1].S16 != 10 {
		t.Fatalf("operands = %+v", instr.Operands)
	}
}

func TestDecodeInstruction_PrefixRecursion(t *testing.T) {
	// _v 5: pan 64
	r := NewByteReader([]byte{0xA1, 0x05, 0xC0, 0x40})
	state := &decodeState{labels: NewLabelTable(nil), synthetic: map[int]string{}, visited: map[int]bool{}, queuedSet: map[int]bool{}}
	instr, err := decodeInstruction(r, 0, state)
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.Mnemonic != "_v" || instr.Operands[0].U8 != 5 {
		t.Fatalf("outer = %+v", instr)
	}
	nested := instr.Operands[1].Nested
	if nested.Mnemonic != "pan" || nested.Operands[0].U8 != 0x40 {
		t.Fatalf("nested = %+v", nested)
	}
}

func TestDecodeChunk_TerminatesOnFin(t *testing.T) {
	r := NewByteReader([]byte{0xC1, 0x64, 0xFF, 0xC1, 0x01}) // volume 100; fin; volume 1 (unreachable)
	state := &decodeState{labels: NewLabelTable(nil), synthetic: map[int]string{}, visited: map[int]bool{}, queuedSet: map[int]bool{}}
	instrs, err := decodeChunk(r, 0, 0, state)
	if err != nil {
		t.Fatalf("decodeChunk: %v", err)
	}
	if len(instrs) != 2 {
		t.Fatalf("got %d instructions, want 2 (stop at fin): %+v", len(instrs), instrs)
	}
}

// errors.go - closed set of RSEQ/TSEQ codec error kinds

package rseq

import "fmt"

// BadSignatureError reports a file header whose signature word did not
// match the expected tag.
type BadSignatureError struct {
	Expected string
	Read     string
	At       int
}

func (e *BadSignatureError) Error() string {
	return fmt.Sprintf("bad signature at offset 0x%X: expected %q, read %q", e.At, e.Expected, e.Read)
}

// UnsupportedBOMError reports a byte order mark other than the big-endian
// 0xFEFF constant this format requires.
type UnsupportedBOMError struct {
	Read uint16
	At   int
}

func (e *UnsupportedBOMError) Error() string {
	return fmt.Sprintf("unsupported byte order mark at offset 0x%X: read 0x%04X", e.At, e.Read)
}

// UnknownVersionError reports a version word outside the supported range.
type UnknownVersionError struct {
	Read uint16
	At   int
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown version at offset 0x%X: 0x%04X", e.At, e.Read)
}

// TruncatedError reports a read that ran out of bytes. Kind is "header"
// for readHeader's own length and bound checks; every other short read
// (section headers, the LABL table, instruction operands) comes from
// ByteReader and reports "instruction". The bound checked is the end of
// the whole image, not the end of the DATA section.
type TruncatedError struct {
	Kind string // "header" or "instruction"
	At   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated %s at offset 0x%X", e.Kind, e.At)
}

// UnknownOpcodeError reports a byte with no row in the MML or MMLEX
// grammar table.
type UnknownOpcodeError struct {
	Byte byte
	At   int
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02X at offset 0x%X", e.Byte, e.At)
}

// VarlenTooLongError reports a variable-length integer that did not
// terminate within 4 bytes.
type VarlenTooLongError struct {
	At int
}

func (e *VarlenTooLongError) Error() string {
	return fmt.Sprintf("varlen exceeds 4 bytes at offset 0x%X", e.At)
}

// U24OverflowError reports a control-flow displacement that does not fit
// in an unsigned 24-bit field during encoding.
type U24OverflowError struct {
	Delta int64
}

func (e *U24OverflowError) Error() string {
	return fmt.Sprintf("displacement %d does not fit in 24 bits", e.Delta)
}

// UndefinedLabelError reports a label referenced by the textual listing
// but never declared.
type UndefinedLabelError struct {
	Name string
}

func (e *UndefinedLabelError) Error() string {
	return fmt.Sprintf("undefined label %q", e.Name)
}

// DuplicateLabelError reports a label declared more than once during
// encoding.
type DuplicateLabelError struct {
	Name string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("duplicate label %q", e.Name)
}

// TextParseError reports a syntax error in a TSEQ listing.
type TextParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *TextParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// label.go - LABL section: label entries and their offset/name indices

package rseq

import "sort"

// Label is one named entry point into the DATA payload.
type Label struct {
	Name       string
	DataOffset int // absolute offset within the DATA payload region
}

// LabelTable holds every label in a file, plus the lookup indices the
// Decoder and Encoder need.
type LabelTable struct {
	Labels         []Label
	byOffset       map[int][]Label
	sortedByOffset []Label
}

// NewLabelTable builds the offset and sorted indices for a set of labels,
// preserving file order in Labels.
func NewLabelTable(labels []Label) *LabelTable {
	t := &LabelTable{
		Labels:   labels,
		byOffset: make(map[int][]Label, len(labels)),
	}
	for _, l := range labels {
		t.byOffset[l.DataOffset] = append(t.byOffset[l.DataOffset], l)
	}
	t.sortedByOffset = append([]Label(nil), labels...)
	sort.SliceStable(t.sortedByOffset, func(i, j int) bool {
		return t.sortedByOffset[i].DataOffset < t.sortedByOffset[j].DataOffset
	})
	return t
}

// ByOffset returns the labels aliasing the given data offset, if any. Two
// labels may share an offset; both are valid entry-name aliases.
func (t *LabelTable) ByOffset(offset int) ([]Label, bool) {
	ls, ok := t.byOffset[offset]
	return ls, ok
}

// SortedByOffset returns labels in ascending data-offset order, the
// chunking boundary the Decoder walks.
func (t *LabelTable) SortedByOffset() []Label {
	return t.sortedByOffset
}

// readLabelTable decodes the LABL section per §4.2/§4.3: an offset table
// of N entries, each pointing to a (data_offset, name_length, name) tuple
// relative to labelOffset+8.
func readLabelTable(r *ByteReader, sh labelSectionHeader) (*LabelTable, error) {
	entryOffsets := make([]uint32, sh.Count)
	for i := range entryOffsets {
		off, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		entryOffsets[i] = off
	}

	labels := make([]Label, sh.Count)
	for i, entryOff := range entryOffsets {
		abs := sh.Offset + 8 + int(entryOff)
		r.Seek(abs)
		dataOffset, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		nameLen, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		nameBytes, err := r.ReadTag(int(nameLen))
		if err != nil {
			return nil, err
		}
		labels[i] = Label{Name: string(nameBytes), DataOffset: int(dataOffset)}
	}
	return NewLabelTable(labels), nil
}

// pad4 rounds n up to the next multiple of 4.
func pad4(n int) int {
	return (n + 3) &^ 3
}

// encodeLabelSection lays out the LABL section for the given labels in
// file order: an offset table followed by packed, 4-byte-padded entries.
func encodeLabelSection(labels []Label) []byte {
	n := len(labels)
	entryOffsets := make([]uint32, n)
	entries := make([][]byte, n)
	// Entries begin after the count field and the offset table, both of
	// which readLabelTable's entryOff is relative to (label_offset+8).
	running := 4 + 4*n
	entriesBase := running
	for i, l := range labels {
		entryOffsets[i] = uint32(running)
		entry := make([]byte, 8+len(l.Name))
		putU32(entry[0:4], uint32(l.DataOffset))
		putU32(entry[4:8], uint32(len(l.Name)))
		copy(entry[8:], l.Name)
		padded := pad4(len(entry))
		if padded > len(entry) {
			padding := make([]byte, padded-len(entry))
			entry = append(entry, padding...)
		}
		entries[i] = entry
		running += padded
	}
	entriesSize := running - entriesBase

	size := 8 + 4*n + entriesSize
	out := make([]byte, size+4)
	copy(out[0:4], labelSectionTag)
	putU32(out[4:8], uint32(size))
	putU32(out[8:12], uint32(n))
	cursor := 12
	for _, off := range entryOffsets {
		putU32(out[cursor:cursor+4], off)
		cursor += 4
	}
	for _, e := range entries {
		copy(out[cursor:], e)
		cursor += len(e)
	}
	return out
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

// Package rseq implements the BSEQ binary sequence container and its
// TSEQ textual listing form: decoding, encoding, and round-tripping
// between the two.
package rseq

// BsearFile is a fully in-memory sequence file: a version and its
// tracks, each a named entry point plus the instructions reachable from
// it. It is the shared representation DecodeBinary, EncodeBinary,
// ParseText, and FormatText all operate on.
type BsearFile struct {
	Version Version
	Tracks  []Track
}

// DecodeBinary parses a BSEQ image into a BsearFile.
func DecodeBinary(data []byte) (*BsearFile, error) {
	result, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &BsearFile{Version: result.Version, Tracks: result.Tracks}, nil
}

// EncodeBinary lays a BsearFile out as a BSEQ image.
func EncodeBinary(f *BsearFile) ([]byte, error) {
	version := f.Version
	if version == (Version{}) {
		version = DefaultVersion
	}
	return EncodeFile(version, f.Tracks)
}

// ParseText parses a TSEQ listing into a BsearFile at the default
// target version; use ParseTextVersion to target a specific one.
func ParseText(src string) (*BsearFile, error) {
	return ParseTextVersion(src, DefaultVersion)
}

// ParseTextVersion parses a TSEQ listing, tagging the result with the
// given target version.
func ParseTextVersion(src string, version Version) (*BsearFile, error) {
	tracks, err := parseTracks(src)
	if err != nil {
		return nil, err
	}
	return &BsearFile{Version: version, Tracks: tracks}, nil
}

// FormatText renders a BsearFile as a TSEQ listing. Offsets and
// jump-distance annotations are always recomputed from the instruction
// tree itself, so formatting a freshly-parsed file and a freshly-decoded
// one produce identically-annotated output.
func FormatText(f *BsearFile) (string, error) {
	nameToOffset, offsets, err := trackOffsets(f.Tracks)
	if err != nil {
		return "", err
	}
	withOffsets := make([]Track, len(f.Tracks))
	for i, t := range f.Tracks {
		t.Offset = offsets[i]
		withOffsets[i] = t
	}
	return formatTracks(withOffsets, nameToOffset), nil
}

// trackOffsets runs the same sizing pass EncodeFile uses, without
// emitting bytes, so callers that only need offsets (FormatText) don't
// pay for a full encode.
func trackOffsets(tracks []Track) (map[string]int, []int, error) {
	nameToOffset := make(map[string]int)
	offsets := make([]int, len(tracks))
	cursor := 0
	for i, t := range tracks {
		offsets[i] = cursor
		for _, n := range t.Names {
			if _, dup := nameToOffset[n]; dup {
				return nil, nil, &DuplicateLabelError{Name: n}
			}
			nameToOffset[n] = cursor
		}
		size, err := chunkSize(t.Instructions)
		if err != nil {
			return nil, nil, err
		}
		cursor += size
	}
	return nameToOffset, offsets, nil
}

// framing.go - file header and DATA/LABL section headers

package rseq

const (
	fileSignature     = "RSEQ"
	dataSectionTag    = "DATA"
	labelSectionTag   = "LABL"
	fileHeaderSize    = 0x14 // minimum bytes present before truncation is certain
	writtenHeaderSize = 0x20 // sig+bom+ver+filesize+headersize+sectioncount+dataOff/Size+labelOff/Size
	sectionHeaderLen  = 0x0C // DATA/LABL: tag(4) + size(4) + reserved/count(4)
)

// header is the decoded 20-byte file header.
type header struct {
	Version      Version
	FileSize     uint32
	HeaderSize   uint16
	SectionCount uint16
	DataOffset   uint32
	DataSize     uint32
	LabelOffset  uint32
	LabelSize    uint32
}

// readHeader parses the file header at offset 0 and validates it per
// §4.2: signature, BOM, version, and the minimum header/section-count
// bounds.
func readHeader(r *ByteReader) (header, error) {
	r.Seek(0)
	if r.Len() < fileHeaderSize {
		return header{}, &TruncatedError{Kind: "header", At: 0}
	}

	tag, err := r.ReadTag(4)
	if err != nil {
		return header{}, err
	}
	if string(tag) != fileSignature {
		return header{}, &BadSignatureError{Expected: fileSignature, Read: string(tag), At: 0}
	}

	bom, err := r.ReadU16()
	if err != nil {
		return header{}, err
	}
	if bom != BOM {
		return header{}, &UnsupportedBOMError{Read: bom, At: 4}
	}

	versionWord, err := r.ReadU16()
	if err != nil {
		return header{}, err
	}
	version := versionFromWord(versionWord)
	if !version.Supported() {
		return header{}, &UnknownVersionError{Read: versionWord, At: 6}
	}

	fileSize, err := r.ReadU32()
	if err != nil {
		return header{}, err
	}
	headerSize, err := r.ReadU16()
	if err != nil {
		return header{}, err
	}
	if headerSize < 16 {
		return header{}, &TruncatedError{Kind: "header", At: 0x0C}
	}
	sectionCount, err := r.ReadU16()
	if err != nil {
		return header{}, err
	}
	if sectionCount < 1 {
		return header{}, &TruncatedError{Kind: "header", At: 0x0E}
	}
	dataOffset, err := r.ReadU32()
	if err != nil {
		return header{}, err
	}
	dataSize, err := r.ReadU32()
	if err != nil {
		return header{}, err
	}
	labelOffset, err := r.ReadU32()
	if err != nil {
		return header{}, err
	}
	labelSize, err := r.ReadU32()
	if err != nil {
		return header{}, err
	}

	return header{
		Version:      version,
		FileSize:     fileSize,
		HeaderSize:   headerSize,
		SectionCount: sectionCount,
		DataOffset:   dataOffset,
		DataSize:     dataSize,
		LabelOffset:  labelOffset,
		LabelSize:    labelSize,
	}, nil
}

// dataSectionHeader is the decoded DATA section preamble; the base-offset
// field is reserved and not required for correctness (§4.2).
type dataSectionHeader struct {
	PayloadStart int // absolute offset of the first payload byte
	Size         uint32
}

func readDataSectionHeader(r *ByteReader, at uint32) (dataSectionHeader, error) {
	r.Seek(int(at))
	tag, err := r.ReadTag(4)
	if err != nil {
		return dataSectionHeader{}, err
	}
	if string(tag) != dataSectionTag {
		return dataSectionHeader{}, &BadSignatureError{Expected: dataSectionTag, Read: string(tag), At: int(at)}
	}
	size, err := r.ReadU32()
	if err != nil {
		return dataSectionHeader{}, err
	}
	if _, err := r.ReadU32(); err != nil { // reserved base-offset field
		return dataSectionHeader{}, err
	}
	return dataSectionHeader{PayloadStart: int(at) + 0x0C, Size: size}, nil
}

// labelSectionHeader is the decoded LABL section preamble.
type labelSectionHeader struct {
	Offset int
	Size   uint32
	Count  uint32
}

func readLabelSectionHeader(r *ByteReader, at uint32) (labelSectionHeader, error) {
	r.Seek(int(at))
	tag, err := r.ReadTag(4)
	if err != nil {
		return labelSectionHeader{}, err
	}
	if string(tag) != labelSectionTag {
		return labelSectionHeader{}, &BadSignatureError{Expected: labelSectionTag, Read: string(tag), At: int(at)}
	}
	size, err := r.ReadU32()
	if err != nil {
		return labelSectionHeader{}, err
	}
	count, err := r.ReadU32()
	if err != nil {
		return labelSectionHeader{}, err
	}
	return labelSectionHeader{Offset: int(at), Size: size, Count: count}, nil
}

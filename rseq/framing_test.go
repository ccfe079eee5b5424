package rseq

import "testing"

func buildTestHeader(t *testing.T, version Version, dataSize, labelSize uint32) []byte {
	t.Helper()
	sectionCount := uint16(1)
	fileSize := writtenHeaderSize + sectionHeaderLen + int(dataSize)
	if labelSize > 0 {
		sectionCount = 2
		fileSize += sectionHeaderLen + int(labelSize)
	}
	h := make([]byte, fileSize)
	copy(h[0:4], fileSignature)
	putU16(h[4:6], BOM)
	putU16(h[6:8], version.Word())
	putU32(h[8:12], uint32(fileSize))
	putU16(h[12:14], writtenHeaderSize)
	putU16(h[14:16], sectionCount)
	putU32(h[16:20], writtenHeaderSize)
	putU32(h[20:24], uint32(sectionHeaderLen+int(dataSize)))
	if labelSize > 0 {
		labelOffset := writtenHeaderSize + sectionHeaderLen + int(dataSize)
		putU32(h[24:28], uint32(labelOffset))
		putU32(h[28:32], labelSize)
	}
	copy(h[writtenHeaderSize:writtenHeaderSize+4], dataSectionTag)
	putU32(h[writtenHeaderSize+4:writtenHeaderSize+8], uint32(sectionHeaderLen+int(dataSize)))
	return h
}

func TestReadHeader_Valid(t *testing.T) {
	data := buildTestHeader(t, Version{1, 4}, 4, 0)
	r := NewByteReader(data)
	hdr, err := readHeader(r)
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if hdr.Version != (Version{1, 4}) {
		t.Errorf("Version = %v, want 1.4", hdr.Version)
	}
	if hdr.DataOffset != writtenHeaderSize {
		t.Errorf("DataOffset = %d, want %d", hdr.DataOffset, writtenHeaderSize)
	}
}

func TestReadHeader_BadSignature(t *testing.T) {
	data := buildTestHeader(t, Version{1, 4}, 4, 0)
	copy(data[0:4], "XXXX")
	_, err := readHeader(NewByteReader(data))
	if _, ok := err.(*BadSignatureError); !ok {
		t.Fatalf("expected *BadSignatureError, got %T (%v)", err, err)
	}
}

func TestReadHeader_BadBOM(t *testing.T) {
	data := buildTestHeader(t, Version{1, 4}, 4, 0)
	putU16(data[4:6], 0x0000)
	_, err := readHeader(NewByteReader(data))
	if _, ok := err.(*UnsupportedBOMError); !ok {
		t.Fatalf("expected *UnsupportedBOMError, got %T (%v)", err, err)
	}
}

func TestReadHeader_UnknownVersion(t *testing.T) {
	data := buildTestHeader(t, Version{9, 9}, 4, 0)
	_, err := readHeader(NewByteReader(data))
	if _, ok := err.(*UnknownVersionError); !ok {
		t.Fatalf("expected *UnknownVersionError, got %T (%v)", err, err)
	}
}

func TestReadHeader_Truncated(t *testing.T) {
	data := buildTestHeader(t, Version{1, 4}, 4, 0)[:10]
	_, err := readHeader(NewByteReader(data))
	if _, ok := err.(*TruncatedError); !ok {
		t.Fatalf("expected *TruncatedError, got %T (%v)", err, err)
	}
}

func TestReadDataSectionHeader(t *testing.T) {
	data := buildTestHeader(t, Version{1, 4}, 4, 0)
	r := NewByteReader(data)
	sh, err := readDataSectionHeader(r, writtenHeaderSize)
	if err != nil {
		t.Fatalf("readDataSectionHeader: %v", err)
	}
	if sh.PayloadStart != writtenHeaderSize+sectionHeaderLen {
		t.Errorf("PayloadStart = %d, want %d", sh.PayloadStart, writtenHeaderSize+sectionHeaderLen)
	}
}

package rseq

import "testing"

func TestVersion_WordRoundTrip(t *testing.T) {
	v := Version{Major: 1, Minor: 4}
	if got := versionFromWord(v.Word()); got != v {
		t.Fatalf("versionFromWord(Word()) = %v, want %v", got, v)
	}
}

func TestVersion_String(t *testing.T) {
	if got := (Version{1, 2}).String(); got != "1.2" {
		t.Errorf("String() = %q, want \"1.2\"", got)
	}
}

func TestVersion_Supported(t *testing.T) {
	if !DefaultVersion.Supported() {
		t.Error("DefaultVersion should be supported")
	}
	if (Version{9, 9}).Supported() {
		t.Error("9.9 should not be supported")
	}
}

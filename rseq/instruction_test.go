package rseq

import "testing"

func TestIsChunkTerminator(t *testing.T) {
	tests := []struct {
		mnemonic string
		want     bool
	}{
		{"fin", true},
		{"ret", true},
		{"jump", true},
		{"call", false},
		{"volume", false},
		{"_r", false},
	}
	for _, tt := range tests {
		if got := isChunkTerminator(tt.mnemonic); got != tt.want {
			t.Errorf("isChunkTerminator(%q) = %v, want %v", tt.mnemonic, got, tt.want)
		}
	}
}

func TestValueConstructors(t *testing.T) {
	if v := u8Value(200); v.Kind != ValU8 || v.U8 != 200 {
		t.Errorf("u8Value = %+v", v)
	}
	if v := s16Value(-100); v.Kind != ValS16 || v.S16 != -100 {
		t.Errorf("s16Value = %+v", v)
	}
	if v := varlenValue(0x1234); v.Kind != ValVarlen || v.Varlen != 0x1234 {
		t.Errorf("varlenValue = %+v", v)
	}
	if v := labelRefValue("foo"); v.Kind != ValLabelRef || v.LabelRef != "foo" {
		t.Errorf("labelRefValue = %+v", v)
	}
	nested := &Instruction{Mnemonic: "fin"}
	if v := nestedValue(nested); v.Kind != ValNested || v.Nested != nested {
		t.Errorf("nestedValue = %+v", v)
	}
}

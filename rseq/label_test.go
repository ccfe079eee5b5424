package rseq

import "testing"

func TestLabelTable_ByOffsetAliases(t *testing.T) {
	labels := []Label{
		{Name: "main", DataOffset: 0},
		{Name: "song_start", DataOffset: 0},
		{Name: "track2", DataOffset: 42},
	}
	table := NewLabelTable(labels)

	ls, ok := table.ByOffset(0)
	if !ok || len(ls) != 2 {
		t.Fatalf("ByOffset(0) = %v, %v, want 2 aliases", ls, ok)
	}
	if _, ok := table.ByOffset(1); ok {
		t.Fatal("ByOffset(1) should not exist")
	}
}

func TestLabelTable_SortedByOffset(t *testing.T) {
	labels := []Label{
		{Name: "c", DataOffset: 30},
		{Name: "a", DataOffset: 10},
		{Name: "b", DataOffset: 20},
	}
	table := NewLabelTable(labels)
	sorted := table.SortedByOffset()
	want := []string{"a", "b", "c"}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i].Name, name)
		}
	}
}

func TestEncodeLabelSection_RoundTrips(t *testing.T) {
	labels := []Label{
		{Name: "main", DataOffset: 0},
		{Name: "loop", DataOffset: 17},
	}
	section := encodeLabelSection(labels)

	r := NewByteReader(section)
	sh, err := readLabelSectionHeader(r, 0)
	if err != nil {
		t.Fatalf("readLabelSectionHeader: %v", err)
	}
	if sh.Count != 2 {
		t.Fatalf("Count = %d, want 2", sh.Count)
	}

	got, err := readLabelTable(r, sh)
	if err != nil {
		t.Fatalf("readLabelTable: %v", err)
	}
	if len(got.Labels) != 2 {
		t.Fatalf("got %d labels, want 2", len(got.Labels))
	}
	for i, l := range labels {
		if got.Labels[i].Name != l.Name || got.Labels[i].DataOffset != l.DataOffset {
			t.Errorf("label %d = %+v, want %+v", i, got.Labels[i], l)
		}
	}
}

func TestPad4(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0}, {1, 4}, {3, 4}, {4, 4}, {5, 8}, {8, 8},
	}
	for _, tt := range tests {
		if got := pad4(tt.in); got != tt.want {
			t.Errorf("pad4(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

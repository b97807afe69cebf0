package timewin

import "testing"

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     float64
		want                           bool
	}{
		{name: "disjoint before", aStart: 0, aEnd: 5, bStart: 10, bEnd: 32, want: false},
		{name: "touching is not overlap", aStart: 0, aEnd: 10, bStart: 10, bEnd: 32, want: false},
		{name: "partial", aStart: 5, aEnd: 35, bStart: 10, bEnd: 32, want: true},
		{name: "contained", aStart: 12, aEnd: 20, bStart: 10, bEnd: 32, want: true},
		{name: "disjoint after", aStart: 35, aEnd: 40, bStart: 10, bEnd: 32, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps(%v,%v,%v,%v) = %v, want %v", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}
}

func TestRebase_ClampsToClipBounds(t *testing.T) {
	start, end, ok := Rebase(5, 35, 10, 32)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if start != 0 {
		t.Fatalf("expected clamped start 0, got %v", start)
	}
	if end != 22 {
		t.Fatalf("expected clamped end 22, got %v", end)
	}
}

func TestRebase_NoOverlap(t *testing.T) {
	if _, _, ok := Rebase(0, 5, 10, 32); ok {
		t.Fatalf("expected no overlap for window fully before clip")
	}
	if _, _, ok := Rebase(35, 40, 10, 32); ok {
		t.Fatalf("expected no overlap for window fully after clip")
	}
}

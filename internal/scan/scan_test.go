package scan

import "testing"

func isPermutation(t *testing.T, got []int, n int) {
	t.Helper()
	seen := make([]bool, n*n)
	for _, p := range got {
		if p < 0 || p >= n*n || seen[p] {
			t.Fatalf("not a permutation: %v", got)
		}
		seen[p] = true
	}
}

func TestBuildIsPermutation(t *testing.T) {
	for _, n := range []int{2, 4, 8} {
		for _, order := range []Order{Diag, Horiz, Vert} {
			got := Build(n, order)
			if len(got) != n*n {
				t.Fatalf("n=%d order=%d: len = %d, want %d", n, order, len(got), n*n)
			}
			isPermutation(t, got, n)
		}
	}
}

func TestDiagScanStartsAtDC(t *testing.T) {
	got := Build(4, Diag)
	if got[0] != 0 {
		t.Errorf("diag scan position 0 = %d, want 0 (DC)", got[0])
	}
}

func TestGroupIdxMonotonic(t *testing.T) {
	prev := -1
	for c := 0; c < 32; c++ {
		g := GroupIdx(c)
		if g < prev {
			t.Errorf("GroupIdx not monotonic at %d: %d < %d", c, g, prev)
		}
		prev = g
	}
}

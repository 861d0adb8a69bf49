package scalinglist

import "testing"

func TestBuildFlatListsCoverAllSizes(t *testing.T) {
	tbl := Build(8)
	for sizeIdx, n := range SizeClasses {
		for lt := 0; lt < NumListTypes; lt++ {
			for rem := 0; rem < 6; rem++ {
				l := tbl.Lists[sizeIdx][lt][rem]
				if len(l.QuantCoef) != n*n {
					t.Fatalf("size %d listType %d rem %d: QuantCoef len = %d, want %d", n, lt, rem, len(l.QuantCoef), n*n)
				}
				if l.QuantCoef[0] != quantScales[rem] {
					t.Errorf("size %d rem %d: flat QuantCoef[0] = %d, want %d", n, rem, l.QuantCoef[0], quantScales[rem])
				}
				if l.DequantCoef[0] != invQuantScales[rem] {
					t.Errorf("size %d rem %d: flat DequantCoef[0] = %d, want %d", n, rem, l.DequantCoef[0], invQuantScales[rem])
				}
			}
		}
	}
}

func TestChromaQPMapping(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0},
		{10, 10},
		{30, 29},
		{43, 37},
		{57, 51},
		{60, 54},
	}
	for _, c := range cases {
		if got := ChromaQP(c.in); got != c.want {
			t.Errorf("ChromaQP(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestBuildCustomOverridesOnePosition(t *testing.T) {
	tbl := Build(8)
	weights := make([]int32, 16)
	for i := range weights {
		weights[i] = 16
	}
	tbl.BuildCustom(0, 0, 0, weights)
	l := tbl.Lists[0][0][0]
	if len(l.QuantCoef) != 16 {
		t.Fatalf("custom list len = %d, want 16", len(l.QuantCoef))
	}
}

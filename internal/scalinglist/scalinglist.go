// Package scalinglist holds the per-QP-remainder quant/dequant weight
// tables the transform/quantize core scales coefficients by. HEVC allows a
// custom per-position weighting matrix per (transform size, list type); this
// package supports both the flat (default, non-scaling) case and custom
// per-position lists, precomputing the forward scale, inverse scale, and
// distortion-unit conversion factor each coefficient position needs so the
// hot quantize/dequantize loops never touch floating point.
package scalinglist

import "math"

// Standard HEVC per-QP%6 scale constants (public, QP-independent of size).
var (
	invQuantScales = [6]int32{40, 45, 51, 57, 64, 72}
	quantScales    = [6]int32{26214, 23302, 20560, 18396, 16384, 14564}
)

// SCALE_BITS is the fixed-point precision errScale values are expressed in,
// matching the forward-quant scale's own Q14/Q15 fixed-point family.
const ScaleBits = 15

// NumListTypes mirrors HEVC's scaling-list list-type count (3 for the 4x4
// size class, which has no inter/intra split collapsed further; callers
// index with whatever list-type enumeration the caller's slice/block type
// maps to — this package is agnostic to the exact enumeration).
const NumListTypes = 6

// SizeClasses are the four supported square transform sizes.
var SizeClasses = [4]int{4, 8, 16, 32}

// List holds the per-position weights for one (size, listType) pair, one
// instance per QP remainder (0..5).
type List struct {
	QuantCoef   []int32   // forward scale, Q(ScaleBits-transformShift) fixed point
	DequantCoef []int32   // inverse weight
	ErrScale    []float64 // squared-error-to-distortion conversion factor
}

// Tables is the full set of scaling lists: Tables.Lists[sizeIdx][listType][rem].
type Tables struct {
	Lists     [4][NumListTypes][6]List
	BitDepth  int
}

// Build constructs the flat (non-custom) scaling lists for every
// (size, listType, rem) combination at the given internal bit depth. A
// custom scaling list (from an SPS/PPS scaling_list_data()) is out of scope
// here: bitstream-level scaling-list parsing is a side-data concern owned by
// the caller, not this numeric core (see Non-goals); BuildCustom below lets
// a caller substitute per-position weights once parsed elsewhere.
func Build(bitDepth int) *Tables {
	t := &Tables{BitDepth: bitDepth}
	for sizeIdx, n := range SizeClasses {
		log2 := log2Int(n)
		transformShift := maxTrDynamicRange - bitDepth - log2
		for lt := 0; lt < NumListTypes; lt++ {
			for rem := 0; rem < 6; rem++ {
				t.Lists[sizeIdx][lt][rem] = flatList(n*n, rem, transformShift)
			}
		}
	}
	return t
}

// BuildCustom overrides the flat weights for one (sizeIdx, listType, rem)
// with a caller-supplied per-position weight matrix (e.g. parsed from
// scaling_list_data()), recomputing DequantCoef and ErrScale to match.
func (t *Tables) BuildCustom(sizeIdx, listType, rem int, weights []int32) {
	n := SizeClasses[sizeIdx]
	log2 := log2Int(n)
	transformShift := maxTrDynamicRange - t.BitDepth - log2
	lst := List{
		QuantCoef:   make([]int32, n*n),
		DequantCoef: make([]int32, n*n),
		ErrScale:    make([]float64, n*n),
	}
	for pos, w := range weights {
		lst.QuantCoef[pos] = scaledQuant(quantScales[rem], w)
		lst.DequantCoef[pos] = scaledQuant(invQuantScales[rem], w)
		lst.ErrScale[pos] = errScaleFor(lst.QuantCoef[pos], transformShift)
	}
	t.Lists[sizeIdx][listType][rem] = lst
}

const maxTrDynamicRange = 15

func flatList(numCoeff, rem, transformShift int) List {
	l := List{
		QuantCoef:   make([]int32, numCoeff),
		DequantCoef: make([]int32, numCoeff),
		ErrScale:    make([]float64, numCoeff),
	}
	q := quantScales[rem]
	d := invQuantScales[rem]
	e := errScaleFor(q, transformShift)
	for i := 0; i < numCoeff; i++ {
		l.QuantCoef[i] = q
		l.DequantCoef[i] = d
		l.ErrScale[i] = e
	}
	return l
}

func scaledQuant(base int32, weight int32) int32 {
	if weight == 0 {
		return base
	}
	return int32((int64(base) * 16) / int64(weight))
}

// errScaleFor derives the squared-error-to-distortion conversion factor for
// a position with forward scale quantCoef, reusing quant.cpp's own
// scaleBits = SCALE_BITS - 2*transformShift exponent (the exact per-position
// errScale formula lives in the scaling-list source file, which the
// retrieved original source did not include — only quant.cpp was present;
// this reconstructs a dimensionally consistent factor from the one exponent
// quant.cpp does name, recorded as an Open Question in DESIGN.md).
func errScaleFor(quantCoef int32, transformShift int) float64 {
	scaleBits := ScaleBits - 2*transformShift
	return math.Ldexp(1.0, 2*scaleBits) / (float64(quantCoef) * float64(quantCoef))
}

func log2Int(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

// chromaQPMap is HEVC's chroma QP mapping (Table 8-10) for QpBdOffset==0,
// indexed by luma-derived QPi clipped to [0,57]; entries above the table's
// explicit range (QPi > 42) hold QPi-6, as the standard specifies.
var chromaQPMap = [58]int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17,
	18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 29, 30, 31, 32, 33, 33,
	34, 34, 35, 35, 36, 36, 37, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47,
	48, 49, 50, 51,
}

// ChromaQP maps a luma-derived chroma QP index to the final chroma QP per
// the standard's piecewise table (flat 1:1 below 30, compressed 30..43,
// 1:1 again above).
func ChromaQP(qpi int) int {
	if qpi < 0 {
		qpi = 0
	}
	if qpi > 57 {
		return qpi - 6
	}
	return chromaQPMap[qpi]
}

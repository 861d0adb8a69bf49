package hevctq

import "github.com/hevctq/hevctq/internal/scalinglist"

// ChromaFormat identifies the chroma subsampling of the current picture;
// only 4:2:0 changes the chroma QP derivation (HEVC's Table 8-10 mapping).
type ChromaFormat int

const (
	Chroma420 ChromaFormat = iota
	Chroma422
	Chroma444
)

// QpParam is a QP's (per, rem) decomposition: the effective dequant scale
// is invQuantScales[rem] << per, and qbits = QUANT_SHIFT + per +
// transformShift.
type QpParam struct {
	Per int
	Rem int
}

func floorDivMod(a, b int) (q, r int) {
	q = a / b
	r = a % b
	if r != 0 && (r < 0) != (b < 0) {
		q--
		r += b
	}
	return
}

func setQpParam(qp int) QpParam {
	per, rem := floorDivMod(qp, 6)
	return QpParam{Per: per, Rem: rem}
}

// SetLuma derives the luma QpParam from a QP already adjusted by the
// bit-depth offset (qpBdOffset = 6*(bitDepth-8)).
func (q *QpParam) SetLuma(qpAdjusted int) {
	*q = setQpParam(qpAdjusted)
}

func clipInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetChroma derives a chroma QpParam from the luma QP plus a per-component
// PPS offset, following HEVC's chroma QP mapping table for 4:2:0 and the
// identity (clamped) mapping otherwise.
func (q *QpParam) SetChroma(qpY, offset int, format ChromaFormat, bitDepthOffset int) {
	qp := clipInt(qpY+offset, -bitDepthOffset, 57)
	if qp >= 30 {
		if format == Chroma420 {
			qp = scalinglist.ChromaQP(qp)
		} else if qp > 51 {
			qp = 51
		}
	}
	*q = setQpParam(qp + bitDepthOffset)
}

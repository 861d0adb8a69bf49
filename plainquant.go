package hevctq

import "github.com/hevctq/hevctq/internal/scan"

// quantPlain is the non-RDOQ quantization path: primitives.Quant scales and
// rounds the DCT buffer into qCoeff, then sign-bit hiding is applied when
// enabled and there are at least two nonzero coefficients. Grounded on
// Quant::quant.
func (q *Quant) quantPlain(dct []int32, scaleList []int32, qbits uint, sliceType SliceType, qCoeff []int16, numCoeff int, params scan.Params) int {
	round := int64(85) << (qbits - 9)
	if sliceType == SliceI {
		round = int64(171) << (qbits - 9)
	}

	numSig := q.prims.Quant(dct, scaleList, qbits, round, q.deltaU[:numCoeff], qCoeff, numCoeff)

	if numSig >= 2 && q.signHideEnabled {
		return applySignHiding(qCoeff, dct, q.deltaU[:numCoeff], numSig, params)
	}
	return numSig
}

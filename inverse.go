package hevctq

import "github.com/hevctq/hevctq/internal/primitives"

// invTransform runs the dequant -> inverse-transform pipeline: transquant
// bypass is a pure copy, transform-skip dequantizes straight into the
// residual plane, and a lone nonzero DC coefficient takes a fixed-shift
// fast path that fills the block without running the 2D inverse at all.
// Grounded on Quant::invtransformNxN.
func (q *Quant) invTransform(transquantBypass bool, residual []int16, stride int,
	coeff []int16, log2TrSize uint, textType TextType, isIntra, useTransformSkip bool, numSig int) {

	trSize := 1 << log2TrSize
	numCoeff := trSize * trSize

	if transquantBypass {
		for j := 0; j < trSize; j++ {
			for i := 0; i < trSize; i++ {
				residual[j*stride+i] = coeff[j*trSize+i]
			}
		}
		return
	}

	sizeIdx := sizeIdxOf(log2TrSize)
	transformShift := MaxTrDynamicRange - q.bitDepth - int(log2TrSize)
	rem := q.qp[textType].Rem
	per := uint(q.qp[textType].Per)
	lt := scalingListType(isIntra, textType)
	shift := uint(QuantIQuantShift - QuantShift - transformShift)

	dequantCoef := q.scaling.Lists[sizeIdx][lt][rem].DequantCoef
	q.prims.DequantScaling(coeff[:numCoeff], dequantCoef, q.resiDctCoeff[:numCoeff], numCoeff, per, shift)

	if useTransformSkip {
		tsShift := transformShift
		if tsShift >= 0 {
			offset := int32(1) << uint(tsShift-1)
			if tsShift == 0 {
				offset = 0
			}
			for j := 0; j < trSize; j++ {
				for i := 0; i < trSize; i++ {
					residual[j*stride+i] = int16((q.resiDctCoeff[j*trSize+i] + offset) >> uint(tsShift))
				}
			}
		} else {
			s := uint(-tsShift)
			for j := 0; j < trSize; j++ {
				for i := 0; i < trSize; i++ {
					residual[j*stride+i] = int16(q.resiDctCoeff[j*trSize+i] << s)
				}
			}
		}
		return
	}

	useDST := sizeIdx == 0 && textType == TextLuma && isIntra

	if numSig == 1 && coeff[0] != 0 && !useDST {
		dc := (int64(q.resiDctCoeff[0])*64 + 64) >> 7
		shift2nd := uint(12 - (q.bitDepth - 8))
		dc = (dc*64 + (int64(1) << (shift2nd - 1))) >> shift2nd
		q.prims.BlockFillS(residual, stride, trSize, int16(dc))
		return
	}

	kernel := primitives.KernelDCT4 + sizeIdx
	if useDST {
		kernel = primitives.KernelDST4
	}
	q.prims.Inverse[kernel](q.resiDctCoeff[:numCoeff], q.fenc32[:numCoeff], trSize)

	for j := 0; j < trSize; j++ {
		for i := 0; i < trSize; i++ {
			residual[j*stride+i] = int16(q.fenc32[j*trSize+i])
		}
	}
}

package hevctq

import "github.com/hevctq/hevctq/internal/scan"

// applySignHiding is the plain (non-RDO) sign-bit-hiding pass: for each
// coefficient group with a wide enough nonzero span, flip the magnitude of
// one coefficient by one so the parity of the group's absolute sum matches
// the sign of its first nonzero — letting the decoder recover that sign
// without coding it. Distortion-only: no rate term. Grounded on
// Quant::signBitHidingHDQ.
func applySignHiding(qCoeff []int16, dct []int32, deltaU []int32, numSig int, params scan.Params) int {
	lastCG := true
	cgCount := 1 << (params.Log2TrSizeCG * 2)

	for subSet := cgCount - 1; subSet >= 0; subSet-- {
		subPos := subSet << log2ScanSetSize

		n := scanSetSize - 1
		for ; n >= 0; n-- {
			if qCoeff[params.Scan[n+subPos]] != 0 {
				break
			}
		}
		if n < 0 {
			continue
		}
		lastNZPosInCG := n

		for n = 0; ; n++ {
			if qCoeff[params.Scan[n+subPos]] != 0 {
				break
			}
		}
		firstNZPosInCG := n

		if lastNZPosInCG-firstNZPosInCG >= SBHThreshold {
			signbit := 0
			if qCoeff[params.Scan[subPos+firstNZPosInCG]] <= 0 {
				signbit = 1
			}
			absSum := 0
			for n := firstNZPosInCG; n <= lastNZPosInCG; n++ {
				absSum += int(qCoeff[params.Scan[n+subPos]])
			}

			if signbit != (absSum & 1) {
				minCostInc := int32(1<<31 - 1)
				minPos := -1
				finalChange := 0
				curChange := 0

				start := scanSetSize - 1
				if lastCG {
					start = lastNZPosInCG
				}
				for n := start; n >= 0; n-- {
					blkPos := params.Scan[n+subPos]
					var curCost int32
					if qCoeff[blkPos] != 0 {
						if deltaU[blkPos] > 0 {
							curCost = -deltaU[blkPos]
							curChange = 1
						} else if n == firstNZPosInCG && abs16(qCoeff[blkPos]) == 1 {
							curCost = 1<<31 - 1
						} else {
							curCost = deltaU[blkPos]
							curChange = -1
						}
					} else if n < firstNZPosInCG {
						thisSignBit := 0
						if dct[blkPos] < 0 {
							thisSignBit = 1
						}
						if thisSignBit != signbit {
							curCost = 1<<31 - 1
						} else {
							curCost = -deltaU[blkPos]
							curChange = 1
						}
					} else {
						curCost = -deltaU[blkPos]
						curChange = 1
					}

					if curCost < minCostInc {
						minCostInc = curCost
						finalChange = curChange
						minPos = blkPos
					}
				}

				if qCoeff[minPos] == 32767 || qCoeff[minPos] == -32768 {
					finalChange = -1
				}

				if qCoeff[minPos] == 0 {
					numSig++
				} else if finalChange == -1 && abs16(qCoeff[minPos]) == 1 {
					numSig--
				}

				if dct[minPos] >= 0 {
					qCoeff[minPos] += int16(finalChange)
				} else {
					qCoeff[minPos] -= int16(finalChange)
				}
			}
		}

		lastCG = false
	}

	return numSig
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

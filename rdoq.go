package hevctq

import (
	"math"

	"github.com/hevctq/hevctq/internal/rdcost"
	"github.com/hevctq/hevctq/internal/scan"
)

// baseLevelTable maps c1c2Idx (0..3) to the CABAC "base level" used by the
// rate functions: {1, 2, 1, 3}. quant.cpp packs the same four values as
// 2-bit fields of the literal 0xD9; a plain array reads the same and is
// clearer in Go.
var baseLevelTable = [4]uint32{1, 2, 1, 3}

func sign32(v int32) int32 {
	if v < 0 {
		return -1
	}
	return 0
}

// rdoQuant is the RDOQ trellis: per-CG, per-coefficient reverse-scan level
// search (Phase A), CG all-zero elimination (Phase A tail), CBP bias
// (Phase B), last-position re-optimization (Phase C), sign finalization
// (Phase D), and RDO sign-bit hiding (Phase E). Grounded line-for-line on
// Quant::rdoQuant.
func (q *Quant) rdoQuant(dstCoeff []int16, log2TrSize uint, textType TextType, isIntra bool, sliceType SliceType, rem, per, transformShift int) int {
	trSize := 1 << log2TrSize
	numCoeff := trSize * trSize
	bIsLuma := textType == TextLuma
	sizeIdx := sizeIdxOf(log2TrSize)
	lt := scalingListType(isIntra, textType)

	qbits := uint(QuantShift + per + transformShift)
	qCoef := q.scaling.Lists[sizeIdx][lt][rem].QuantCoef

	numSig := q.prims.NQuant(q.resiDctCoeff[:numCoeff], qCoef, qbits, q.scaledCoeff[:numCoeff], dstCoeff[:numCoeff], numCoeff)
	if numSig == 0 {
		return 0
	}

	unquantShift := QuantIQuantShift - QuantShift - transformShift
	unquantRound := int32(1<<uint(unquantShift)) - 1
	unquantScale := q.scaling.Lists[sizeIdx][lt][rem].DequantCoef[0]
	scaleBits := ScaleBits - 2*transformShift

	errScale := q.scaling.Lists[sizeIdx][lt][rem].ErrScale
	usePsy := q.psyScale != 0 && bIsLuma

	var blockUncodedCost float64
	costCoeff := q.costCoeff[:numCoeff]
	costSig := q.costSig[:numCoeff]
	costCoeff0 := q.costCoeff0[:numCoeff]
	rateIncUp := q.rateIncUp[:numCoeff]
	rateIncDown := q.rateIncDown[:numCoeff]
	sigRateDelta := q.sigRateDelta[:numCoeff]
	deltaU := q.deltaU[:numCoeff]

	params := scan.BuildParams(log2TrSize, scan.Diag)
	cgNum := 1 << (params.Log2TrSizeCG * 2)
	costCoeffGroupSig := q.costCoeffGroupSig[:cgNum]

	var sigCoeffGroupFlag64 uint64
	ctxSet := uint32(0)
	c1 := 1
	c2 := 0
	var baseCost float64
	lastScanPos := -1
	goRiceParam := uint32(0)
	c1Idx := uint32(0)
	c2Idx := uint32(0)
	cgLastScanPos := -1

	est := q.estimates
	lambda2 := q.lambda2

	for cgScanPos := cgNum - 1; cgScanPos >= 0; cgScanPos-- {
		cgBlkPos := uint(params.ScanCG[cgScanPos])
		cgPosY := cgBlkPos >> params.Log2TrSizeCG
		cgPosX := cgBlkPos - (cgPosY << params.Log2TrSizeCG)
		cgBlkPosMask := uint64(1) << cgBlkPos

		var rdNnzBeforePos0 int
		var rdCodedLevelAndDist float64
		var rdUncodedDist float64
		var rdSigCost float64
		var rdSigCost0 float64

		patternSigCtx := rdcost.CalcPatternSigCtx(sigCoeffGroupFlag64, cgPosX, cgPosY, params.Log2TrSizeCG)

		for scanPosInCG := scanSetSize - 1; scanPosInCG >= 0; scanPosInCG-- {
			scanPos := (cgScanPos << log2ScanSetSize) + scanPosInCG
			blkPos := uint(params.Scan[scanPos])
			scaleFactor := errScale[blkPos]
			levelDouble := q.scaledCoeff[blkPos]
			maxAbsLevel := uint32(abs16(dstCoeff[blkPos]))

			costCoeff0[scanPos] = float64(int64(levelDouble)*int64(levelDouble)) * scaleFactor
			blockUncodedCost += costCoeff0[scanPos]

			if maxAbsLevel > 0 && lastScanPos < 0 {
				lastScanPos = scanPos
				if scanPos < scanSetSize || !bIsLuma {
					ctxSet = 0
				} else {
					ctxSet = 2
				}
				cgLastScanPos = cgScanPos
			}

			var level uint32
			if lastScanPos >= 0 {
				c1c2Idx := boolToU32(c1Idx < C1FlagNumber) + boolToU32(c2Idx == 0)*2
				baseLevel := baseLevelTable[c1c2Idx]

				oneCtx := int(4*ctxSet) + c1
				absCtx := int(ctxSet) + c2
				greaterOneBits := &est.GreaterOneBits[oneCtx%rdcost.NumOneContexts]
				levelAbsBits := &est.LevelAbsBits[absCtx%rdcost.NumAbsContexts]

				costCoeff[scanPos] = math.MaxFloat64
				signCoef := q.resiDctCoeff[blkPos]
				predictedCoef := q.fencDctCoeff[blkPos] - signCoef

				rdoCodedLevel := func(curCostSig float64) {
					err1 := levelDouble - (int32(maxAbsLevel) << qbits)
					err2 := float64(int64(err1) * int64(err1))
					minAbsLevel := maxAbsLevel - 1
					if minAbsLevel < 1 {
						minAbsLevel = 1
					}
					for lvl := maxAbsLevel; lvl >= minAbsLevel; lvl-- {
						rateCost := rdcost.GetICRateCost(lvl, int32(lvl)-int32(baseLevel), greaterOneBits, levelAbsBits, goRiceParam, c1c2Idx)
						curCost := err2*scaleFactor + lambda2*(curCostSig+float64(rateCost))

						var psyValue float64
						if usePsy && blkPos != 0 {
							unquantAbsLevel := (int32(lvl)*unquantScale + unquantRound) >> uint(unquantShift)
							reconVal := unquantAbsLevel + signOf(predictedCoef, signCoef)
							if reconVal < 0 {
								reconVal = -reconVal
							}
							reconCoef := reconVal << uint(scaleBits)
							psyValue = float64((q.psyScale * uint64(reconCoef)) >> 8)
						}
						if curCost-psyValue < costCoeff[scanPos] {
							level = lvl
							costCoeff[scanPos] = curCost - psyValue
							costSig[scanPos] = lambda2 * curCostSig
						}
						if lvl > minAbsLevel {
							err3 := 2 * int64(err1) * (int64(1) << qbits)
							err4 := (int64(1) << qbits) * (int64(1) << qbits)
							err2 += float64(err3 + err4)
						}
					}
				}

				if scanPos == lastScanPos {
					rdoCodedLevel(0)
					sigRateDelta[blkPos] = 0
				} else {
					ctxSig := rdcost.GetSigCtxInc(patternSigCtx, log2TrSize, uint(trSize), blkPos, bIsLuma, params.FirstSignificanceCtx)
					sigIdx := ctxSig % rdcost.NumSigContexts
					if maxAbsLevel < 3 {
						costSig[scanPos] = lambda2 * float64(est.SignificantBits[sigIdx][0])
						costCoeff[scanPos] = costCoeff0[scanPos] + costSig[scanPos]
					}
					if maxAbsLevel != 0 {
						rdoCodedLevel(float64(est.SignificantBits[sigIdx][1]))
					} else {
						level = 0
					}
					sigRateDelta[blkPos] = est.SignificantBits[sigIdx][1] - est.SignificantBits[sigIdx][0]
				}

				deltaU[blkPos] = (levelDouble - (int32(level) << qbits)) >> (qbits - 8)
				dstCoeff[blkPos] = int16(level)
				baseCost += costCoeff[scanPos]

				if level > 0 {
					rateNow := rdcost.GetICRate(level, int32(level)-int32(baseLevel), greaterOneBits, levelAbsBits, goRiceParam, c1c2Idx)
					rateIncUp[blkPos] = rdcost.GetICRate(level+1, int32(level+1)-int32(baseLevel), greaterOneBits, levelAbsBits, goRiceParam, c1c2Idx) - rateNow
					rateIncDown[blkPos] = rdcost.GetICRate(level-1, int32(level-1)-int32(baseLevel), greaterOneBits, levelAbsBits, goRiceParam, c1c2Idx) - rateNow
				} else {
					rateIncUp[blkPos] = greaterOneBits[0]
					rateIncDown[blkPos] = 0
				}

				if level >= baseLevel && goRiceParam < 4 && level > (3<<goRiceParam) {
					goRiceParam++
				}
				if level != 0 {
					c1Idx++
				}
				if level > 1 {
					c1 = 0
					if c2 != 2 {
						c2++
					}
					c2Idx++
				} else if c1 < 3 && c1 > 0 && level != 0 {
					c1++
				}

				if scanPos%scanSetSize == 0 && scanPos > 0 {
					c2 = 0
					goRiceParam = 0
					c1Idx = 0
					c2Idx = 0
					if scanPos == scanSetSize || !bIsLuma {
						ctxSet = 0
					} else {
						ctxSet = 2
					}
					if c1 == 0 {
						ctxSet++
					}
					c1 = 1
				}
			} else {
				costCoeff[scanPos] = 0
				baseCost += costCoeff0[scanPos]
			}

			rdSigCost += costSig[scanPos]
			if scanPosInCG == 0 {
				rdSigCost0 = costSig[scanPos]
			}

			if dstCoeff[blkPos] != 0 {
				sigCoeffGroupFlag64 |= cgBlkPosMask
				rdCodedLevelAndDist += costCoeff[scanPos] - costSig[scanPos]
				rdUncodedDist += costCoeff0[scanPos]
				if scanPosInCG != 0 {
					rdNnzBeforePos0++
				}
			}
		}

		if cgLastScanPos >= 0 {
			costCoeffGroupSig[cgScanPos] = 0
			if cgScanPos != 0 {
				if sigCoeffGroupFlag64&cgBlkPosMask == 0 {
					ctxSig := rdcost.GetSigCoeffGroupCtxInc(sigCoeffGroupFlag64, cgPosX, cgPosY, params.Log2TrSizeCG)
					baseCost += lambda2*float64(est.SignificantCoeffGroupBits[ctxSig][0]) - rdSigCost
					costCoeffGroupSig[cgScanPos] = lambda2 * float64(est.SignificantCoeffGroupBits[ctxSig][0])
				} else if cgScanPos < cgLastScanPos {
					if rdNnzBeforePos0 == 0 {
						baseCost -= rdSigCost0
						rdSigCost -= rdSigCost0
					}
					costZeroCG := baseCost

					ctxSig := rdcost.GetSigCoeffGroupCtxInc(sigCoeffGroupFlag64, cgPosX, cgPosY, params.Log2TrSizeCG)
					baseCost += lambda2 * float64(est.SignificantCoeffGroupBits[ctxSig][1])
					costZeroCG += lambda2 * float64(est.SignificantCoeffGroupBits[ctxSig][0])
					costCoeffGroupSig[cgScanPos] = lambda2 * float64(est.SignificantCoeffGroupBits[ctxSig][1])

					costZeroCG += rdUncodedDist
					costZeroCG -= rdCodedLevelAndDist
					costZeroCG -= rdSigCost

					if costZeroCG < baseCost {
						sigCoeffGroupFlag64 &^= cgBlkPosMask
						baseCost = costZeroCG
						costCoeffGroupSig[cgScanPos] = lambda2 * float64(est.SignificantCoeffGroupBits[ctxSig][0])

						for scanPosInCG := scanSetSize - 1; scanPosInCG >= 0; scanPosInCG-- {
							scanPos := cgScanPos*scanSetSize + scanPosInCG
							blkPos := uint(params.Scan[scanPos])
							if dstCoeff[blkPos] != 0 {
								costCoeff[scanPos] = costCoeff0[scanPos]
								costSig[scanPos] = 0
							}
							dstCoeff[blkPos] = 0
						}
					}
				}
			} else {
				sigCoeffGroupFlag64 |= cgBlkPosMask
			}
		}
	}

	if lastScanPos < 0 {
		return 0
	}

	// Phase B: CBP bias. TU-depth/root-CBP context is external CU state this
	// block-local core does not track; ctxCbf is fixed at 0, matching the
	// common case (see DESIGN.md, "Simplification — CBP context").
	const ctxCbf = 0
	var bestCost float64
	if !isIntra && bIsLuma {
		bestCost = blockUncodedCost + lambda2*float64(est.BlockRootCbpBits[ctxCbf][0])
		baseCost += lambda2 * float64(est.BlockRootCbpBits[ctxCbf][1])
	} else {
		bestCost = blockUncodedCost + lambda2*float64(est.BlockCbpBits[ctxCbf][0])
		baseCost += lambda2 * float64(est.BlockCbpBits[ctxCbf][1])
	}

	bestLastIdx := 0
	foundLast := false
	for cgScanPos := cgLastScanPos; cgScanPos >= 0 && !foundLast; cgScanPos-- {
		cgBlkPos := uint(params.ScanCG[cgScanPos])
		baseCost -= costCoeffGroupSig[cgScanPos]

		if sigCoeffGroupFlag64&(uint64(1)<<cgBlkPos) == 0 {
			continue
		}

		for scanPosInCG := scanSetSize - 1; scanPosInCG >= 0; scanPosInCG-- {
			scanPos := cgScanPos*scanSetSize + scanPosInCG
			if scanPos > lastScanPos {
				continue
			}
			blkPos := uint(params.Scan[scanPos])
			if dstCoeff[blkPos] != 0 {
				posY := blkPos >> log2TrSize
				posX := blkPos - (posY << log2TrSize)
				var costLast float64
				if params.ScanType == scan.Vert {
					costLast = lambda2 * float64(rdcost.GetRateLast(est, int(posY), int(posX)))
				} else {
					costLast = lambda2 * float64(rdcost.GetRateLast(est, int(posX), int(posY)))
				}
				totalCost := baseCost + costLast - costSig[scanPos]

				if totalCost < bestCost {
					bestLastIdx = scanPos + 1
					bestCost = totalCost
				}
				if abs16(dstCoeff[blkPos]) > 1 {
					foundLast = true
					break
				}
				baseCost -= costCoeff[scanPos]
				baseCost += costCoeff0[scanPos]
			} else {
				baseCost -= costSig[scanPos]
			}
		}
	}

	numSig = 0
	for pos := 0; pos < bestLastIdx; pos++ {
		blkPos := uint(params.Scan[pos])
		level := int32(dstCoeff[blkPos])
		if level != 0 {
			numSig++
		}
		mask := sign32(q.resiDctCoeff[blkPos])
		dstCoeff[blkPos] = int16((level ^ mask) - mask)
	}
	for pos := bestLastIdx; pos <= lastScanPos; pos++ {
		dstCoeff[params.Scan[pos]] = 0
	}

	if q.signHideEnabled && numSig >= 2 {
		invQuant := int64(unquantScale) << uint(per)
		numSig += q.applyRDOSignHiding(dstCoeff, rateIncUp, rateIncDown, sigRateDelta, deltaU, cgLastScanPos, params, invQuant)
	}

	return numSig
}

// applyRDOSignHiding is RDOQ's sign-bit-hiding pass: like the plain
// applySignHiding, it flips one coefficient per eligible CG to make the
// group's absolute-sum parity match the hidden sign, but picks the flip
// site by RD cost (rateIncUp/rateIncDown/sigRateDelta, the per-position
// rate deltas the level search above already computed) rather than by
// raw distortion alone. Grounded on the RDO sign-hiding tail of
// Quant::rdoQuant.
func (q *Quant) applyRDOSignHiding(qCoeff []int16, rateIncUp, rateIncDown, sigRateDelta []int64, deltaU []int32, cgLastScanPos int, params scan.Params, invQuant int64) int {
	rdFactor := int64(float64(invQuant*invQuant)/(q.lambda2*16) + 0.5)
	lastCG := true
	numSigDelta := 0

	for subSet := cgLastScanPos; subSet >= 0; subSet-- {
		subPos := subSet << log2ScanSetSize

		lastNZPosInCG := -1
		for n := scanSetSize - 1; n >= 0; n-- {
			if qCoeff[params.Scan[n+subPos]] != 0 {
				lastNZPosInCG = n
				break
			}
		}
		firstNZPosInCG := scanSetSize
		for n := 0; n < scanSetSize; n++ {
			if qCoeff[params.Scan[n+subPos]] != 0 {
				firstNZPosInCG = n
				break
			}
		}
		if lastNZPosInCG < 0 {
			continue
		}

		absSum := 0
		for n := firstNZPosInCG; n <= lastNZPosInCG; n++ {
			absSum += int(qCoeff[params.Scan[n+subPos]])
		}

		if lastNZPosInCG-firstNZPosInCG >= SBHThreshold {
			signbit := 0
			if qCoeff[params.Scan[subPos+firstNZPosInCG]] <= 0 {
				signbit = 1
			}

			if signbit != (absSum & 1) {
				var minCostInc int64 = math.MaxInt64
				minPos := -1
				finalChange := 0

				start := scanSetSize - 1
				if lastCG {
					start = lastNZPosInCG
				}
				for n := start; n >= 0; n-- {
					blkPos := uint(params.Scan[n+subPos])
					var curCost int64
					var curChange int

					if qCoeff[blkPos] != 0 {
						costUp := rdFactor*int64(-deltaU[blkPos]) + rateIncUp[blkPos]
						costDown := rdFactor*int64(deltaU[blkPos]) + rateIncDown[blkPos]
						if abs16(qCoeff[blkPos]) == 1 {
							costDown -= IEPRate + sigRateDelta[blkPos]
						}
						if lastCG && n == lastNZPosInCG && abs16(qCoeff[blkPos]) == 1 {
							costDown -= 4 << 15
						}

						if costUp < costDown {
							curCost = costUp
							curChange = 1
						} else {
							curChange = -1
							if n == firstNZPosInCG && abs16(qCoeff[blkPos]) == 1 {
								curCost = math.MaxInt64
							} else {
								curCost = costDown
							}
						}
					} else {
						absDeltaU := deltaU[blkPos]
						if absDeltaU < 0 {
							absDeltaU = -absDeltaU
						}
						curCost = rdFactor*int64(-absDeltaU) + IEPRate + rateIncUp[blkPos] + sigRateDelta[blkPos]
						curChange = 1

						if n < firstNZPosInCG {
							thisSignBit := 0
							if q.resiDctCoeff[blkPos] < 0 {
								thisSignBit = 1
							}
							if thisSignBit != signbit {
								curCost = math.MaxInt64
							}
						}
					}

					if curCost < minCostInc {
						minCostInc = curCost
						finalChange = curChange
						minPos = int(blkPos)
					}
				}

				if qCoeff[minPos] == 32767 || qCoeff[minPos] == -32768 {
					finalChange = -1
				}

				if qCoeff[minPos] == 0 {
					numSigDelta++
				} else if finalChange == -1 && abs16(qCoeff[minPos]) == 1 {
					numSigDelta--
				}

				if q.resiDctCoeff[minPos] >= 0 {
					qCoeff[minPos] += int16(finalChange)
				} else {
					qCoeff[minPos] -= int16(finalChange)
				}
			}
		}

		lastCG = false
	}

	return numSigDelta
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// signOf applies y's sign to x, matching the source's SIGN(x,y) macro:
// (x ^ (y>>31)) - (y>>31).
func signOf(x, y int32) int32 {
	s := sign32(y)
	return (x ^ s) - s
}

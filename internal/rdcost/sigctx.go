package rdcost

// ctxIndMap is the fixed significance-context table for 4x4 blocks (HEVC's
// table for coeff_abs_significant_flag at log2TrSize==2).
var ctxIndMap = [16]int{
	0, 1, 4, 5,
	2, 3, 4, 5,
	6, 6, 8, 8,
	7, 7, 8, 8,
}

// tableCnt is indexed [patternSigCtx][posXinSubset][posYinSubset] and gives
// the base significance-context increment for blocks larger than 4x4.
var tableCnt = [4][4][4]int{
	{
		{2, 1, 1, 0},
		{1, 1, 0, 0},
		{1, 0, 0, 0},
		{0, 0, 0, 0},
	},
	{
		{2, 1, 0, 0},
		{2, 1, 0, 0},
		{2, 1, 0, 0},
		{2, 1, 0, 0},
	},
	{
		{2, 2, 2, 2},
		{1, 1, 1, 1},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	},
	{
		{2, 2, 2, 2},
		{2, 2, 2, 2},
		{2, 2, 2, 2},
		{2, 2, 2, 2},
	},
}

// CalcPatternSigCtx inspects the already-decided CG significance bitmap to
// the right of and below (cgPosX, cgPosY) and returns 0..3.
func CalcPatternSigCtx(sigCoeffGroupFlag64 uint64, cgPosX, cgPosY, log2TrSizeCG uint) int {
	if log2TrSizeCG == 0 {
		return 0
	}
	trSizeCG := uint(1) << log2TrSizeCG
	sigPos := uint32(sigCoeffGroupFlag64 >> (1 + (cgPosY << log2TrSizeCG) + cgPosX))
	sigRight := uint32(int32(cgPosX-(trSizeCG-1))>>31) & (sigPos & 1)
	sigLower := uint32(int32(cgPosY-(trSizeCG-1))>>31) & (sigPos >> (trSizeCG - 2)) & 2
	return int(sigRight + sigLower)
}

// GetSigCtxInc derives the significance-flag context for one coefficient
// position, given the pattern context of its CG.
func GetSigCtxInc(patternSigCtx int, log2TrSize, trSize, blkPos uint, isLuma bool, firstSigMapCtx int) int {
	if blkPos == 0 {
		return 0
	}
	if log2TrSize == 2 {
		return ctxIndMap[blkPos]
	}
	posY := blkPos >> log2TrSize
	posX := blkPos & (trSize - 1)
	posXinSubset := int(blkPos & 3)
	posYinSubset := int(posY & 3)
	cnt := tableCnt[patternSigCtx][posXinSubset][posYinSubset]
	offset := firstSigMapCtx + cnt
	if isLuma && (posX|posY) >= 4 {
		return 3 + offset
	}
	return offset
}

// GetSigCoeffGroupCtxInc derives the context for a coefficient group's own
// significance flag, from whether the CG to the right or below is nonzero.
func GetSigCoeffGroupCtxInc(sigCoeffGroupFlag64 uint64, cgPosX, cgPosY, log2TrSizeCG uint) int {
	trSizeCG := uint(1) << log2TrSizeCG
	sigPos := uint32(sigCoeffGroupFlag64 >> (1 + (cgPosY << log2TrSizeCG) + cgPosX))
	sigRight := uint32(int32(cgPosX-(trSizeCG-1))>>31) & sigPos
	sigLower := uint32(int32(cgPosY-(trSizeCG-1))>>31) & (sigPos >> (trSizeCG - 1))
	return int((sigRight | sigLower) & 1)
}

// Package rdcost holds the CABAC bit-cost snapshot RDOQ scores candidate
// coefficient levels against, plus the pure context-derivation and
// rate-estimation functions that only depend on that snapshot and a scan
// position (no per-block mutable state). Grounded directly on the x265
// quant.cpp functions of the same name (getICRate, getICRateCost,
// calcPatternSigCtx, getSigCtxInc, getSigCoeffGroupCtxInc, getRateLast).
package rdcost

import "github.com/hevctq/hevctq/internal/scan"

// IEPRate is the fixed per-bypass-bin cost: 1 bit, expressed in the 1<<15
// fixed-point unit every cost in this package is scaled by.
const IEPRate = 1 << 15

// CoefRemainBinReduction bounds the truncated-Rice prefix before the coder
// switches to exponential-Golomb suffix coding.
const CoefRemainBinReduction = 3

// goRiceRange is the maximum truncated-Rice symbol value per Rice
// parameter (0..4), the standard HEVC/HM g_goRiceRange table.
var goRiceRange = [5]uint32{7, 14, 26, 46, 78}

const (
	NumSigContexts      = 44
	NumSigGroupContexts = 4
	NumOneContexts      = 16
	NumAbsContexts      = 16
	NumLastContexts     = 10
	NumCbfContexts      = 5
)

// Estimates is a read-only snapshot of per-context CABAC bit costs, supplied
// by the caller once per call (it depends on the current entropy-coder
// probability state, which lives outside this core). All costs are scaled
// so 1 bit == IEPRate.
type Estimates struct {
	SignificantBits           [NumSigContexts][2]int64
	SignificantCoeffGroupBits [NumSigGroupContexts][2]int64
	GreaterOneBits            [NumOneContexts][2]int64
	LevelAbsBits              [NumAbsContexts][2]int64
	LastXBits                 [NumLastContexts]int64
	LastYBits                 [NumLastContexts]int64
	BlockCbpBits              [NumCbfContexts][2]int64
	BlockRootCbpBits          [NumCbfContexts][2]int64
}

// Default returns a flat snapshot (every "0" bin cheaper than every "1" bin
// by a plausible fixed margin) usable for tests and as a starting point
// before the caller wires in real adaptive probabilities.
func Default() *Estimates {
	e := &Estimates{}
	for i := range e.SignificantBits {
		e.SignificantBits[i] = [2]int64{IEPRate / 4, IEPRate}
	}
	for i := range e.SignificantCoeffGroupBits {
		e.SignificantCoeffGroupBits[i] = [2]int64{IEPRate / 4, IEPRate}
	}
	for i := range e.GreaterOneBits {
		e.GreaterOneBits[i] = [2]int64{IEPRate / 2, IEPRate}
	}
	for i := range e.LevelAbsBits {
		e.LevelAbsBits[i] = [2]int64{IEPRate / 2, IEPRate}
	}
	for i := range e.LastXBits {
		e.LastXBits[i] = IEPRate
	}
	for i := range e.LastYBits {
		e.LastYBits[i] = IEPRate
	}
	for i := range e.BlockCbpBits {
		e.BlockCbpBits[i] = [2]int64{IEPRate / 4, IEPRate}
	}
	for i := range e.BlockRootCbpBits {
		e.BlockRootCbpBits[i] = [2]int64{IEPRate / 4, IEPRate}
	}
	return e
}

// GetRateLast estimates the cost of signaling the last significant
// coefficient position (major, minor), including the bypass-coded suffix
// bits of (group-2)>>1 for every coordinate in group 4 or above.
func GetRateLast(e *Estimates, major, minor int) int64 {
	ctxX := scan.GroupIdx(major)
	ctxY := scan.GroupIdx(minor)
	cost := e.LastXBits[ctxX] + e.LastYBits[ctxY]
	if major > 2 {
		cost += IEPRate * int64((ctxX-2)>>1)
	}
	if minor > 2 {
		cost += IEPRate * int64((ctxY-2)>>1)
	}
	return cost
}

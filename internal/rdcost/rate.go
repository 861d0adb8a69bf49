package rdcost

import "math/bits"

// GetICRate estimates the coded bit cost (in IEPRate units) of coding
// absLevel via the greater-1/greater-2/remainder syntax elements, given how
// far it sits above the CG's baseLevel (diffLevel) and the current Rice
// parameter. c1c2Idx selects which of the four combinations of "greater-1
// context still active" / "greater-2 context still active" applies.
func GetICRate(absLevel uint32, diffLevel int32, greaterOneBits, levelAbsBits *[2]int64, goRice uint32, c1c2Idx uint32) int64 {
	if absLevel == 0 {
		return 0
	}
	var rate int64
	if diffLevel < 0 {
		idx := 0
		if absLevel == 2 {
			idx = 1
		}
		rate += greaterOneBits[idx]
		if absLevel == 2 {
			rate += levelAbsBits[0]
		}
		return rate
	}

	symbol := uint32(diffLevel)
	maxVlc := goRiceRange[goRice]
	if symbol > maxVlc {
		excess := symbol - maxVlc
		size := 31 - bits.LeadingZeros32(excess)
		egs := size*2 + 1
		rate += int64(egs) << 15
		symbol = maxVlc + 1
	}
	prefLen := (symbol >> goRice) + 1
	numBins := prefLen + goRice
	if numBins > 8 {
		numBins = 8
	}
	rate += int64(numBins) << 15

	if c1c2Idx&1 != 0 {
		rate += greaterOneBits[1]
	}
	if c1c2Idx == 3 {
		rate += levelAbsBits[1]
	}
	return rate
}

// GetICRateCost is getICRate's sibling used inside the per-candidate cost
// search: it folds in the IEPRate sign-bit cost and derives the
// remainder's length from CoefRemainBinReduction instead of goRiceRange,
// matching quant.cpp exactly. The two derivations agree for small remainders
// but not for all (goRice 0, diffLevel 6: GetICRate counts 7 bins, this
// function 8).
func GetICRateCost(absLevel uint32, diffLevel int32, greaterOneBits, levelAbsBits *[2]int64, goRice uint32, c1c2Idx uint32) int64 {
	rate := int64(IEPRate)
	if diffLevel < 0 {
		idx := 0
		if absLevel == 2 {
			idx = 1
		}
		rate += greaterOneBits[idx]
		if absLevel == 2 {
			rate += levelAbsBits[0]
		}
		return rate
	}

	symbol := uint32(diffLevel)
	var length uint32
	if (symbol >> goRice) < CoefRemainBinReduction {
		length = symbol >> goRice
		rate += int64(length+1+goRice) << 15
	} else {
		length = 0
		symbol = (symbol >> goRice) - CoefRemainBinReduction
		if symbol != 0 {
			length = uint32(31 - bits.LeadingZeros32(symbol+1))
		}
		rate += int64(CoefRemainBinReduction+length+goRice+1+length) << 15
	}
	if c1c2Idx&1 != 0 {
		rate += greaterOneBits[1]
	}
	if c1c2Idx == 3 {
		rate += levelAbsBits[1]
	}
	return rate
}

package hevctq

// applyNoiseReduction implements denoiseDct: for each DCT coefficient,
// accumulate its magnitude into the running sum, subtract the configured
// per-position offset, and zero the coefficient if the result goes
// negative (restoring sign otherwise). Disabled for DST blocks (the
// 4x4 luma intra transform) since the offset table is tuned for DCT energy
// distribution.
func applyNoiseReduction(dct []int32, sizeIdx int, nr *NoiseReduction) {
	sum := nr.ResidualSum[sizeIdx]
	offset := nr.Offset[sizeIdx]
	for i := range dct {
		level := dct[i]
		sign := int32(0)
		if level < 0 {
			sign = -1
		}
		mag := (level + sign) ^ sign
		sum[i] += uint32(mag)
		mag -= int32(offset[i])
		if mag < 0 {
			dct[i] = 0
		} else {
			dct[i] = (mag ^ sign) - sign
		}
	}
	nr.Count[sizeIdx]++
}

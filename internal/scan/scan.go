// Package scan builds the coefficient scan orders the transform/quantize
// core walks in both directions: per-coefficient scans within a transform
// block and the coarser coefficient-group (CG) scan across 4x4
// (1<<MLS_CG_SIZE square) sub-blocks, grounded on the teacher's dsp.initScanTable style
// (a scan table built once and indexed by scan position rather than
// recomputed per block).
package scan

// Order identifies one of HEVC's three scan directions.
type Order int

const (
	Diag Order = iota
	Horiz
	Vert
)

// Build returns the scan-position -> raster-position permutation for an n x
// n grid (either a full transform block or, at CG granularity, the grid of
// coefficient groups). Diagonal scans low frequency first, consistent with
// DC landing at scan position 0 for both the block and CG grids.
func Build(n int, order Order) []int {
	out := make([]int, 0, n*n)
	switch order {
	case Horiz:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				out = append(out, y*n+x)
			}
		}
	case Vert:
		for x := 0; x < n; x++ {
			for y := 0; y < n; y++ {
				out = append(out, y*n+x)
			}
		}
	default: // Diag: up-right anti-diagonals, bottom of each diagonal first
		for d := 0; d <= 2*(n-1); d++ {
			yMax := d
			if yMax > n-1 {
				yMax = n - 1
			}
			yMin := 0
			if d-(n-1) > 0 {
				yMin = d - (n - 1)
			}
			for y := yMax; y >= yMin; y-- {
				x := d - y
				out = append(out, y*n+x)
			}
		}
	}
	return out
}

// groupIdx is HEVC's standard mapping from a last-significant-coefficient
// raster distance (0..31) to its context group for lastX/lastY bit-cost
// estimation (HM's g_groupIdx).
var groupIdx = [32]int{
	0, 1, 2, 3, 4, 4, 5, 5, 6, 6, 6, 6, 7, 7, 7, 7,
	8, 8, 8, 8, 8, 8, 8, 8, 9, 9, 9, 9, 9, 9, 9, 9,
}

// GroupIdx returns the context group for a coordinate in [0,31].
func GroupIdx(coord int) int {
	if coord < 0 {
		coord = 0
	}
	if coord > 31 {
		coord = 31
	}
	return groupIdx[coord]
}

// minInGroup is the first raster coordinate belonging to each of the ten
// lastX/lastY context groups (HM's g_minInGroup), used to turn a group index
// back into its bit-cost base offset.
var minInGroup = [10]int{0, 1, 2, 3, 4, 6, 8, 12, 16, 24}

// MinInGroup returns the first coordinate in context group g.
func MinInGroup(g int) int {
	return minInGroup[g]
}

// Params bundles the scan-order data one transform unit's RDOQ/SBH pass
// needs: the per-coefficient scan, the coarser per-CG scan, the CG grid's
// log2 side, and the base significance-context offset for blocks above 4x4
// (HEVC partitions the larger-block significance contexts by transform
// size; log2TrSize==2 blocks use the fixed 16-entry table instead and never
// consult this offset).
type Params struct {
	Scan                 []int
	ScanCG               []int
	Log2TrSizeCG         uint
	ScanType             Order
	FirstSignificanceCtx int
}

// firstSigCtxBySize is the base significance-context offset per log2TrSize
// (2..5); derived from HEVC's per-size context partitioning (each larger
// block size claims its own band of contexts above the fixed 4x4 table).
var firstSigCtxBySize = map[uint]int{3: 9, 4: 21, 5: 21}

// numOrders/minLog2TrSize/maxLog2TrSize bound the small, fixed set of
// (log2TrSize, order) combinations HEVC ever needs, letting every one of
// them be built once at package init rather than per transform-unit call
// (BuildParams sits on the RDOQ/SBH hot path, and scan permutations never
// change at runtime).
const (
	minLog2TrSize = 2
	maxLog2TrSize = 5
	numOrders     = 3
)

var paramsCache [maxLog2TrSize - minLog2TrSize + 1][numOrders]Params

func init() {
	for log2TrSize := uint(minLog2TrSize); log2TrSize <= maxLog2TrSize; log2TrSize++ {
		for order := Order(0); order < numOrders; order++ {
			paramsCache[log2TrSize-minLog2TrSize][order] = buildParams(log2TrSize, order)
		}
	}
}

func buildParams(log2TrSize uint, order Order) Params {
	trSize := 1 << log2TrSize
	trSizeCG := trSize / 4
	log2TrSizeCG := uint(0)
	for s := trSizeCG; s > 1; s >>= 1 {
		log2TrSizeCG++
	}
	return Params{
		Scan:                 Build(trSize, order),
		ScanCG:               Build(trSizeCG, order),
		Log2TrSizeCG:         log2TrSizeCG,
		ScanType:             order,
		FirstSignificanceCtx: firstSigCtxBySize[log2TrSize],
	}
}

// BuildParams returns the precomputed scan/CG-scan pair for one transform
// unit's (log2TrSize, order) combination; the underlying tables are built
// once at package init, never per call.
func BuildParams(log2TrSize uint, order Order) Params {
	return paramsCache[log2TrSize-minLog2TrSize][order]
}

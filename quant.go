package hevctq

import (
	"errors"
	"fmt"

	"github.com/hevctq/hevctq/internal/primitives"
	"github.com/hevctq/hevctq/internal/rdcost"
	"github.com/hevctq/hevctq/internal/scalinglist"
	"github.com/hevctq/hevctq/internal/scan"
)

// ErrNilPrimitives is returned by New when no primitives table is supplied.
var ErrNilPrimitives = errors.New("hevctq: nil primitives table")

// ErrNilScalingList is returned by New when no scaling-list tables are
// supplied.
var ErrNilScalingList = errors.New("hevctq: nil scaling list tables")

// Quant is a per-worker transform/quantize instance: it owns the scratch
// buffers a block transform needs and borrows its immutable collaborators
// (primitives, scaling lists, bit estimates) from the caller. Not safe for
// concurrent use by multiple goroutines — create one Quant per encoder
// worker, matching the teacher's per-worker encoder pool pattern.
type Quant struct {
	prims    *primitives.Table
	scaling  *scalinglist.Tables
	useRDOQ  bool
	psyScale uint64 // psyScale*256, fixed-point per SPEC_FULL supplement 5

	signHideEnabled bool
	bitDepth        int

	qp [3]QpParam // indexed by TextType

	estimates *rdcost.Estimates
	nr        *NoiseReduction
	lambda2   float64

	// Scratch, sized MaxTrSize*MaxTrSize and reused across blocks.
	resiDctCoeff []int32
	fencDctCoeff []int32
	fencShortBuf []int16
	deltaU       []int32
	scaledCoeff  []int32
	residual32   []int32
	fenc32       []int32

	// RDOQ per-call scratch, sized MaxTrSize*MaxTrSize (costCoeffGroupSig:
	// MLSGrpNum).
	costCoeff        []float64
	costSig          []float64
	costCoeff0       []float64
	rateIncUp        []int64
	rateIncDown      []int64
	sigRateDelta     []int64
	costCoeffGroupSig []float64
}

// New builds a Quant instance. prims and scaling must be non-nil;
// primitives.Default() and scalinglist.Build(bitDepth) supply the stock
// scalar backend.
func New(prims *primitives.Table, scaling *scalinglist.Tables, useRDOQ bool, psyScale float64) (*Quant, error) {
	if prims == nil {
		return nil, ErrNilPrimitives
	}
	if scaling == nil {
		return nil, ErrNilScalingList
	}
	q := &Quant{
		prims:     prims,
		scaling:   scaling,
		useRDOQ:   useRDOQ,
		psyScale:  uint64(psyScale * 256.0),
		bitDepth:  scaling.BitDepth,
		estimates: rdcost.Default(),
	}
	n := MaxTrSize * MaxTrSize
	q.resiDctCoeff = make([]int32, n)
	q.fencDctCoeff = make([]int32, n)
	q.fencShortBuf = make([]int16, n)
	q.deltaU = make([]int32, n)
	q.scaledCoeff = make([]int32, n)
	q.residual32 = make([]int32, n)
	q.fenc32 = make([]int32, n)
	q.costCoeff = make([]float64, n)
	q.costSig = make([]float64, n)
	q.costCoeff0 = make([]float64, n)
	q.rateIncUp = make([]int64, n)
	q.rateIncDown = make([]int64, n)
	q.sigRateDelta = make([]int64, n)
	q.costCoeffGroupSig = make([]float64, MLSGrpNum)
	return q, nil
}

// SetQPforCU sets the luma and both chroma QpParams for the current coding
// unit, applying the per-component PPS chroma QP offsets.
func (q *Quant) SetQPforCU(qpY int, chromaFormat ChromaFormat, cbQPOffset, crQPOffset int) {
	bdOffset := 6 * (q.bitDepth - 8)
	q.qp[TextLuma].SetLuma(qpY + bdOffset)
	q.qp[TextChromaU].SetChroma(qpY, cbQPOffset, chromaFormat, bdOffset)
	q.qp[TextChromaV].SetChroma(qpY, crQPOffset, chromaFormat, bdOffset)
}

// SetNoiseReduction wires (or disables, with nil) the DCT noise-reduction
// filter.
func (q *Quant) SetNoiseReduction(nr *NoiseReduction) { q.nr = nr }

// SetSignHiding enables or disables sign-bit hiding for both the plain and
// RDOQ quantizers.
func (q *Quant) SetSignHiding(enabled bool) { q.signHideEnabled = enabled }

// SetBitEstimates installs the CABAC bit-cost snapshot RDOQ scores
// candidate levels against. Until it is called, RDOQ uses the flat
// rdcost.Default() snapshot that New installs.
func (q *Quant) SetBitEstimates(est *rdcost.Estimates) { q.estimates = est }

// SetLambda sets the squared Lagrangian multiplier RDOQ weighs rate
// against distortion with (the encoder's rate-control lambda, squared to
// operate in the transform-domain SSE units costCoeff0 is expressed in).
func (q *Quant) SetLambda(lambda2 float64) { q.lambda2 = lambda2 }

func sizeIdxOf(log2TrSize uint) int { return int(log2TrSize) - 2 }

func scalingListType(isIntra bool, ttype TextType) int {
	base := 3
	if isIntra {
		base = 0
	}
	return base + int(ttype)
}

// TransformNxN runs the forward residual -> DCT -> (NR) -> (RDOQ|plain
// quant) -> SBH pipeline for one transform unit, returning the number of
// nonzero output coefficients. Grounded on Quant::transformNxN.
func (q *Quant) TransformNxN(fenc []int16, fencStride int, residual []int16, stride int,
	coeff []int16, log2TrSize uint, textType TextType, isIntra bool,
	transquantBypass, useTransformSkip, useRDOQ bool, sliceType SliceType) (int, error) {

	if log2TrSize < 2 || log2TrSize > 5 {
		return 0, fmt.Errorf("hevctq: transform: unsupported log2TrSize %d", log2TrSize)
	}
	trSize := 1 << log2TrSize
	numCoeff := trSize * trSize

	if transquantBypass {
		numSig := 0
		for k := 0; k < trSize; k++ {
			for j := 0; j < trSize; j++ {
				v := residual[k*stride+j]
				coeff[k*trSize+j] = v
				if v != 0 {
					numSig++
				}
			}
		}
		return numSig, nil
	}

	sizeIdx := sizeIdxOf(log2TrSize)
	transformShift := MaxTrDynamicRange - q.bitDepth - int(log2TrSize)

	if useTransformSkip {
		shift := transformShift
		if shift >= 0 {
			q.prims.Cvt16to32Shl(q.resiDctCoeff, residual, stride, uint(shift), trSize)
		} else {
			shift = -shift
			offset := int32(1) << uint(shift-1)
			for j := 0; j < trSize; j++ {
				for k := 0; k < trSize; k++ {
					q.resiDctCoeff[j*trSize+k] = (int32(residual[j*stride+k]) + offset) >> uint(shift)
				}
			}
		}
	} else {
		useDST := sizeIdx == 0 && textType == TextLuma && isIntra
		kernel := primitives.KernelDCT4 + sizeIdx
		if useDST {
			kernel = primitives.KernelDST4
		}

		if q.psyScale != 0 && textType == TextLuma {
			q.prims.SquareCopyPS(q.fencShortBuf, fenc, fencStride, trSize)
			for i := 0; i < numCoeff; i++ {
				q.fenc32[i] = int32(q.fencShortBuf[i])
			}
			q.prims.Forward[kernel](q.fenc32[:numCoeff], q.fencDctCoeff[:numCoeff], trSize)
		}

		for j := 0; j < trSize; j++ {
			for i := 0; i < trSize; i++ {
				q.residual32[j*trSize+i] = int32(residual[j*stride+i])
			}
		}
		q.prims.Forward[kernel](q.residual32[:numCoeff], q.resiDctCoeff[:numCoeff], trSize)

		if q.nr != nil && q.nr.Enabled && !useDST {
			applyNoiseReduction(q.resiDctCoeff[:numCoeff], sizeIdx, q.nr)
		}
	}

	rem := q.qp[textType].Rem
	per := q.qp[textType].Per

	if q.useRDOQ && useRDOQ {
		return q.rdoQuant(coeff, log2TrSize, textType, isIntra, sliceType, rem, per, transformShift), nil
	}

	lt := scalingListType(isIntra, textType)
	scaleList := q.scaling.Lists[sizeIdx][lt][rem].QuantCoef
	qbits := uint(QuantShift + per + transformShift)
	params := scan.BuildParams(log2TrSize, scan.Diag)
	return q.quantPlain(q.resiDctCoeff[:numCoeff], scaleList, qbits, sliceType, coeff[:numCoeff], numCoeff, params), nil
}

// InvTransformNxN runs the dequant -> inverse-transform pipeline, including
// the DC-only fast path and transform-skip support. Grounded on
// Quant::invtransformNxN.
func (q *Quant) InvTransformNxN(transquantBypass bool, residual []int16, stride int,
	coeff []int16, log2TrSize uint, textType TextType, isIntra, useTransformSkip bool, numSig int) {
	q.invTransform(transquantBypass, residual, stride, coeff, log2TrSize, textType, isIntra, useTransformSkip, numSig)
}

package space

import (
	"math"

	"github.com/maseology/cm4go/modelerr"
)

// Method identifies which weight regime a transfer's aggregation method
// implies: conservative for sum, area-weighted-average for the rest.
type Method int

const (
	MethodMean Method = iota
	MethodSum
	MethodMin
	MethodMax
	MethodPoint
)

// rowWeights is one destination cell's compressed-row contribution list:
// the source cell indices (flattened i*NX+j) and their weights.
type rowWeights struct {
	srcIndex []int
	weight   []float64
}

// RemapWeights is the sparse matrix W such that
// value_D[d] = sum_s W[d,s] * value_S[s], cached once per (source,
// destination, method-regime) pair at model construction.
type RemapWeights struct {
	srcNY, srcNX int
	dstNY, dstNX int
	rows         []rowWeights // len == dstNY*dstNX
	neutralZero  bool         // conservative (sum): missing rows fill zero
	zeroRows     []bool       // rows whose weights summed to zero after masking
}

// DeriveWeights computes the remap matrix from src onto dst under the
// weight regime implied by method. A land/sea mask on src multiplies
// source weights to zero on sea cells; rows that become all-zero are
// filled to a neutral value (NaN for mean/min/max, zero for sum) and
// flagged in ZeroRows.
func DeriveWeights(src, dst *Grid, method Method) (*RemapWeights, error) {
	if src == nil || dst == nil {
		return nil, modelerr.NewConfigError("space.DeriveWeights", "nil grid")
	}
	rw := &RemapWeights{
		srcNY: src.NY, srcNX: src.NX,
		dstNY: dst.NY, dstNX: dst.NX,
		rows:        make([]rowWeights, dst.NY*dst.NX),
		neutralZero: method == MethodSum,
		zeroRows:    make([]bool, dst.NY*dst.NX),
	}

	conservative := method == MethodSum

	for di := 0; di < dst.NY; di++ {
		dy0, dy1 := dst.YBounds[di], dst.YBounds[di+1]
		if dy1 < dy0 {
			dy0, dy1 = dy1, dy0
		}
		for dj := 0; dj < dst.NX; dj++ {
			dx0, dx1 := dst.XBounds[dj], dst.XBounds[dj+1]
			if dx1 < dx0 {
				dx0, dx1 = dx1, dx0
			}
			d := di*dst.NX + dj
			var idxs []int
			var wts []float64
			sum := 0.0
			for si := 0; si < src.NY; si++ {
				sy0, sy1 := src.YBounds[si], src.YBounds[si+1]
				if sy1 < sy0 {
					sy0, sy1 = sy1, sy0
				}
				oy := overlap1D(sy0, sy1, dy0, dy1)
				if oy <= 0 {
					continue
				}
				for sj := 0; sj < src.NX; sj++ {
					if src.Mask != nil && !src.Mask[si][sj] {
						continue
					}
					sx0, sx1 := src.XBounds[sj], src.XBounds[sj+1]
					if sx1 < sx0 {
						sx0, sx1 = sx1, sx0
					}
					ox := overlap1D(sx0, sx1, dx0, dx1)
					if ox <= 0 {
						continue
					}
					overlapFrac := oy * ox / ((sy1 - sy0) * (sx1 - sx0))
					overlapArea := overlapFrac * src.CellArea(si, sj)

					var w float64
					if conservative {
						w = overlapArea / src.CellArea(si, sj)
					} else {
						w = overlapArea / dst.CellArea(di, dj)
					}
					idxs = append(idxs, si*src.NX+sj)
					wts = append(wts, w)
					sum += w
				}
			}
			if len(idxs) == 0 || sum == 0 {
				rw.zeroRows[d] = true
			}
			rw.rows[d] = rowWeights{srcIndex: idxs, weight: wts}
		}
	}
	return rw, nil
}

func overlap1D(a0, a1, b0, b1 float64) float64 {
	lo := math.Max(a0, b0)
	hi := math.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Apply remaps a flattened source-grid value array onto the destination
// grid using the cached weights. For mean it applies a weighted sum
// (rows already sum to ~1); for sum it is a weighted sum (conservative
// split); for min/max the weights only identify contributing source
// cells, and the caller-provided reduce combines them.
func (rw *RemapWeights) Apply(src []float64, reduce func(values []float64, weights []float64) float64) ([]float64, error) {
	if len(src) != rw.srcNY*rw.srcNX {
		return nil, &modelerr.ShapeError{Where: "RemapWeights.Apply", Expected: [2]int{rw.srcNY, rw.srcNX}, Got: [2]int{len(src), 1}}
	}
	out := make([]float64, rw.dstNY*rw.dstNX)
	for d, row := range rw.rows {
		if rw.zeroRows[d] || len(row.srcIndex) == 0 {
			if rw.neutralZero {
				out[d] = 0
			} else {
				out[d] = math.NaN()
			}
			continue
		}
		vals := make([]float64, len(row.srcIndex))
		for k, si := range row.srcIndex {
			vals[k] = src[si]
		}
		out[d] = reduce(vals, row.weight)
	}
	return out, nil
}

// WeightedSum reduces via sum(v_k * w_k) — used for both the sum
// (conservative) and mean (area-weighted average) regimes.
func WeightedSum(values, weights []float64) float64 {
	s := 0.0
	for k, v := range values {
		s += v * weights[k]
	}
	return s
}

// ReduceMin ignores weights beyond membership and returns the elementwise
// minimum of the contributing source cells.
func ReduceMin(values, weights []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}

// ReduceMax ignores weights beyond membership and returns the elementwise
// maximum of the contributing source cells.
func ReduceMax(values, weights []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

// ZeroRows reports which destination cells received no overlapping
// unmasked source contribution.
func (rw *RemapWeights) ZeroRows() []bool { return rw.zeroRows }

// DstShape returns the destination grid's (ny, nx).
func (rw *RemapWeights) DstShape() (int, int) { return rw.dstNY, rw.dstNX }

// SrcShape returns the source grid's (ny, nx).
func (rw *RemapWeights) SrcShape() (int, int) { return rw.srcNY, rw.srcNX }

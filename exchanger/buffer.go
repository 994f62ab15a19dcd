package exchanger

import (
	"math"

	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/space"
)

// buffer is the accumulator for one wired (src, dst, transfer) triple.
// Its source-side behaviour is "remap on publish"; its destination-side
// behaviour folds every published sample into an accumulator suited to
// the transfer's aggregation method, and yields (and resets) that
// accumulator on Collect.
type buffer struct {
	method  component.Aggregation
	weights *space.RemapWeights // nil for an optional inward with no producer
	dstNY, dstNX int

	sum       []float64
	count     int
	min, max  []float64
	lastValue []float64
	hasSample bool
}

func newBuffer(method component.Aggregation, weights *space.RemapWeights, dstNY, dstNX int) *buffer {
	cells := dstNY * dstNX
	b := &buffer{method: method, weights: weights, dstNY: dstNY, dstNX: dstNX}
	b.lastValue = make([]float64, cells)
	b.resetAccumulator(cells)
	return b
}

func (b *buffer) resetAccumulator(cells int) {
	b.sum = make([]float64, cells)
	b.count = 0
	b.min = fill(cells, math.Inf(1))
	b.max = fill(cells, math.Inf(-1))
	b.hasSample = false
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// reduceForRemap returns the source-cell combining rule Apply should use
// for this buffer's aggregation method.
func (b *buffer) reduceForRemap() func([]float64, []float64) float64 {
	switch b.method {
	case component.Min:
		return space.ReduceMin
	case component.Max:
		return space.ReduceMax
	default: // Mean, Sum, Point all combine source cells as a weighted sum
		return space.WeightedSum
	}
}

// publish remaps raw (already at src's own grid & units) values onto the
// destination grid and folds them into the accumulator.
func (b *buffer) publish(raw []float64) error {
	remapped := raw
	if b.weights != nil {
		r, err := b.weights.Apply(raw, b.reduceForRemap())
		if err != nil {
			return err
		}
		remapped = r
	}
	switch b.method {
	case component.Sum, component.Mean:
		for i, v := range remapped {
			b.sum[i] += v
		}
	case component.Min:
		for i, v := range remapped {
			if v < b.min[i] {
				b.min[i] = v
			}
		}
	case component.Max:
		for i, v := range remapped {
			if v > b.max[i] {
				b.max[i] = v
			}
		}
	case component.Point:
		copy(b.lastValue, remapped)
	}
	b.count++
	b.hasSample = true
	return nil
}

// collect returns the destination-side aggregate for the window that
// just closed, and resets the accumulator. If no sample was published
// since the last collect, the previous result is carried forward
// (covers a destination ticking faster than its source).
func (b *buffer) collect() []float64 {
	cells := len(b.sum)
	if !b.hasSample {
		out := make([]float64, cells)
		copy(out, b.lastValue)
		return out
	}
	out := make([]float64, cells)
	switch b.method {
	case component.Sum:
		copy(out, b.sum)
	case component.Mean:
		// mean = sum/count, computed in one fixed-order division per
		// spec.md §9, not as a running mean.
		for i, s := range b.sum {
			out[i] = s / float64(b.count)
		}
	case component.Min:
		copy(out, b.min)
	case component.Max:
		copy(out, b.max)
	case component.Point:
		copy(out, b.lastValue)
	}
	copy(b.lastValue, out)
	b.resetAccumulator(cells)
	return out
}

// seed sets the carry-forward value used before the first publish
// (cold-start zero, or a value restored from a dump/initial-transfers
// file).
func (b *buffer) seed(v []float64) { copy(b.lastValue, v) }

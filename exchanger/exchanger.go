// Package exchanger implements the Exchanger: the buffer-and-resample
// subsystem that mediates every transfer between components running on
// different space/time resolutions. It is the principal design artefact
// of the coupling engine (spec.md §4.4).
package exchanger

import (
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/modelerr"
	"github.com/maseology/cm4go/space"
)

type key struct {
	Src, Dst component.Category
	Name     string
}

type weightKey struct {
	src, dst *space.Grid
	method   component.Aggregation
}

// Exchanger holds one buffer per wired (src, dst, transfer) triple.
type Exchanger struct {
	buffers    map[key]*buffer
	byConsumer map[component.Category]map[string]*buffer
	weights    map[weightKey]*space.RemapWeights
}

// New performs the wiring check across every adapter's declared
// inwards and builds the buffers (and cached remap weights) for every
// resulting transfer.
func New(adapters []*component.Adapter) (*Exchanger, error) {
	byCategory := make(map[component.Category]*component.Adapter, len(adapters))
	for _, a := range adapters {
		byCategory[component.Category(a.Name)] = a
	}

	ex := &Exchanger{
		buffers:    make(map[key]*buffer),
		byConsumer: make(map[component.Category]map[string]*buffer),
		weights:    make(map[weightKey]*space.RemapWeights),
	}

	for _, consumer := range adapters {
		consumerCat := component.Category(consumer.Name)
		ex.byConsumer[consumerCat] = make(map[string]*buffer)
		for _, inward := range consumer.Component.Descriptor.Inwards {
			var candidates []*component.Adapter
			for _, peer := range inward.Peers {
				producer, ok := byCategory[peer]
				if !ok {
					continue
				}
				if declaresOutward(producer, inward.Name) {
					candidates = append(candidates, producer)
				}
			}
			switch len(candidates) {
			case 0:
				if inward.Optional {
					dstNY, dstNX := consumer.Component.Grid.Shape()
					b := newBuffer(inward.Aggregation, nil, dstNY, dstNX)
					ex.byConsumer[consumerCat][inward.Name] = b
					continue
				}
				peers := make([]string, len(inward.Peers))
				for i, p := range inward.Peers {
					peers[i] = string(p)
				}
				return nil, &modelerr.WiringError{
					Kind: modelerr.WiringMissingProducer, Consumer: string(consumerCat),
					Transfer: inward.Name, Producers: peers,
				}
			case 1:
				producer := candidates[0]
				w, err := ex.weightsFor(producer.Component.Grid, consumer.Component.Grid, inward.Aggregation)
				if err != nil {
					return nil, err
				}
				dstNY, dstNX := consumer.Component.Grid.Shape()
				b := newBuffer(inward.Aggregation, w, dstNY, dstNX)
				k := key{Src: component.Category(producer.Name), Dst: consumerCat, Name: inward.Name}
				ex.buffers[k] = b
				ex.byConsumer[consumerCat][inward.Name] = b
			default:
				names := make([]string, len(candidates))
				for i, c := range candidates {
					names[i] = c.Name
				}
				return nil, &modelerr.WiringError{
					Kind: modelerr.WiringAmbiguousProducer, Consumer: string(consumerCat),
					Transfer: inward.Name, Producers: names,
				}
			}
		}
	}
	return ex, nil
}

func declaresOutward(a *component.Adapter, name string) bool {
	for _, o := range a.Component.Descriptor.Outwards {
		if o.Name == name {
			return true
		}
	}
	return false
}

func (ex *Exchanger) weightsFor(src, dst *space.Grid, method component.Aggregation) (*space.RemapWeights, error) {
	if src == dst {
		return nil, nil // identical grid: no remap needed
	}
	regime := space.MethodMean
	if method == component.Sum {
		regime = space.MethodSum
	}
	wk := weightKey{src: src, dst: dst, method: method}
	if w, ok := ex.weights[wk]; ok {
		return w, nil
	}
	w, err := space.DeriveWeights(src, dst, regime)
	if err != nil {
		return nil, err
	}
	ex.weights[wk] = w
	return w, nil
}

// Publish delivers a producer's freshly computed outward value to every
// wired consumer, remapping and folding it into each consumer's
// accumulator. A no-op if no consumer wired to (src, name).
func (ex *Exchanger) Publish(src component.Category, name string, value []float64) error {
	for k, b := range ex.buffers {
		if k.Src == src && k.Name == name {
			if err := b.publish(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Collect returns (and resets) the accumulated inward value for a
// consumer's transfer at its own tick.
func (ex *Exchanger) Collect(dst component.Category, name string) ([]float64, error) {
	buffers, ok := ex.byConsumer[dst]
	if !ok {
		return nil, modelerr.NewConfigError("exchanger.Collect", "unknown consumer %q", dst)
	}
	b, ok := buffers[name]
	if !ok {
		return nil, modelerr.NewConfigError("exchanger.Collect", "no buffer for %s.%s", dst, name)
	}
	return b.collect(), nil
}

// SeedZero seeds every buffer's carry-forward value with a zero field,
// the cold-start default described in spec.md §4.4.
func (ex *Exchanger) SeedZero() {
	for _, buffers := range ex.byConsumer {
		for _, b := range buffers {
			b.seed(make([]float64, len(b.lastValue)))
		}
	}
}

// Snapshot captures every buffer's in-flight state for the Checkpoint
// subsystem.
type Snapshot struct {
	Buffers map[string]BufferSnapshot
}

// BufferSnapshot is the serialisable state of one buffer.
type BufferSnapshot struct {
	Sum, Min, Max, LastValue []float64
	Count                    int
	HasSample                bool
}

func bufferID(dst component.Category, name string) string { return string(dst) + "/" + name }

// Snapshot returns a deep copy of every consumer-side buffer's state,
// keyed by "<consumer category>/<transfer name>".
func (ex *Exchanger) Snapshot() Snapshot {
	out := Snapshot{Buffers: make(map[string]BufferSnapshot)}
	for dst, buffers := range ex.byConsumer {
		for name, b := range buffers {
			out.Buffers[bufferID(dst, name)] = BufferSnapshot{
				Sum:       append([]float64(nil), b.sum...),
				Min:       append([]float64(nil), b.min...),
				Max:       append([]float64(nil), b.max...),
				LastValue: append([]float64(nil), b.lastValue...),
				Count:     b.count,
				HasSample: b.hasSample,
			}
		}
	}
	return out
}

// Restore replaces every buffer's state with a previously captured
// Snapshot, for byte-identical resume.
func (ex *Exchanger) Restore(snap Snapshot) error {
	for dst, buffers := range ex.byConsumer {
		for name, b := range buffers {
			s, ok := snap.Buffers[bufferID(dst, name)]
			if !ok {
				continue
			}
			b.sum = append([]float64(nil), s.Sum...)
			b.min = append([]float64(nil), s.Min...)
			b.max = append([]float64(nil), s.Max...)
			b.lastValue = append([]float64(nil), s.LastValue...)
			b.count = s.Count
			b.hasSample = s.HasSample
		}
	}
	return nil
}

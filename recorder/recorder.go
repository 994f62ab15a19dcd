// Package recorder implements the Recorder: per-component accumulation
// of selected variables under named aggregations at named frequencies,
// flushed to persistent storage in time slices (spec.md §4.5).
package recorder

import (
	"math"
	"time"

	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/modelerr"
)

// WindowRequest is one `{window -> set_of_methods}` entry for a
// recorded variable.
type WindowRequest struct {
	Window  time.Duration
	Methods []component.Aggregation
}

// RecordSpec is a user request to record one component variable
// (outward, output, or state) under one or more window/method
// combinations.
type RecordSpec struct {
	Variable string
	Units    string
	Windows  []WindowRequest
}

type trackKey struct {
	Variable string
	Window   time.Duration
	Method   component.Aggregation
}

type track struct {
	windowTicks int
	ticks       int
	sum         []float64
	min, max    []float64
	last        []float64
	hasSample   bool
}

func newTrack(cells, windowTicks int) *track {
	t := &track{windowTicks: windowTicks}
	t.reset(cells)
	return t
}

func (t *track) reset(cells int) {
	t.ticks = 0
	t.sum = make([]float64, cells)
	t.min = fillTrack(cells, math.Inf(1))
	t.max = fillTrack(cells, math.Inf(-1))
	t.last = make([]float64, cells)
	t.hasSample = false
}

func fillTrack(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (t *track) fold(v []float64) {
	for i, x := range v {
		t.sum[i] += x
		if x < t.min[i] {
			t.min[i] = x
		}
		if x > t.max[i] {
			t.max[i] = x
		}
	}
	copy(t.last, v)
	t.ticks++
	t.hasSample = true
}

func (t *track) closed() bool { return t.ticks >= t.windowTicks }

func (t *track) value(method component.Aggregation) []float64 {
	cells := len(t.sum)
	out := make([]float64, cells)
	switch method {
	case component.Sum:
		copy(out, t.sum)
	case component.Mean:
		for i, s := range t.sum {
			out[i] = s / float64(t.ticks)
		}
	case component.Min:
		copy(out, t.min)
	case component.Max:
		copy(out, t.max)
	case component.Point:
		copy(out, t.last)
	}
	return out
}

// Recorder accumulates one component's recorded variables at every
// tick and flushes completed windows to disk in slices of M.
type Recorder struct {
	ComponentID  string
	SimulationID string
	Tag          string // "run" or "spinup-N"
	Dt           time.Duration
	Dir          string
	SliceSize    int
	Cells        int

	specs  []RecordSpec
	tracks map[trackKey]*track

	pendingValues map[trackKey][][]float64
	pendingTimes  map[trackKey][]time.Time

	writer *fileWriter
}

// New builds a Recorder for one component. sliceSize is M, the number
// of completed window-values buffered before a flush; sliceSize<=0
// defaults to 1 (flush every completed window, appropriate for short
// runs per spec.md §4.5).
func New(componentID, simulationID, tag string, dt time.Duration, dir string, cells, sliceSize int, specs []RecordSpec) (*Recorder, error) {
	if sliceSize <= 0 {
		sliceSize = 1
	}
	r := &Recorder{
		ComponentID: componentID, SimulationID: simulationID, Tag: tag,
		Dt: dt, Dir: dir, SliceSize: sliceSize, Cells: cells,
		specs:         specs,
		tracks:        make(map[trackKey]*track),
		pendingValues: make(map[trackKey][][]float64),
		pendingTimes:  make(map[trackKey][]time.Time),
		writer:        newFileWriter(dir),
	}
	for _, spec := range specs {
		for _, wr := range spec.Windows {
			if wr.Window <= 0 || wr.Window%dt != 0 {
				return nil, modelerr.NewConfigError("recorder.New", "%s: window %v is not a positive multiple of Δt %v", spec.Variable, wr.Window, dt)
			}
			ticks := int(wr.Window / dt)
			for _, m := range wr.Methods {
				k := trackKey{Variable: spec.Variable, Window: wr.Window, Method: m}
				r.tracks[k] = newTrack(cells, ticks)
			}
		}
	}
	return r, nil
}

// Fold folds the current tick's values into every active accumulator
// whose window covers this tick, and flushes any window that just
// closed. now is this component's own tick datetime.
func (r *Recorder) Fold(now time.Time, values map[string][]float64) error {
	for k, tr := range r.tracks {
		v, ok := values[k.Variable]
		if !ok {
			continue
		}
		tr.fold(v)
		if tr.closed() {
			agg := tr.value(k.Method)
			r.pendingValues[k] = append(r.pendingValues[k], agg)
			r.pendingTimes[k] = append(r.pendingTimes[k], now)
			tr.reset(r.Cells)
			if len(r.pendingValues[k]) >= r.SliceSize {
				if err := r.flush(k); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Recorder) flush(k trackKey) error {
	values := r.pendingValues[k]
	times := r.pendingTimes[k]
	if len(values) == 0 {
		return nil
	}
	spec := r.specForVariable(k.Variable)
	meta := recordMeta{
		SourceVariable: k.Variable,
		Units:          spec.Units,
		WindowSeconds:  int64(k.Window / time.Second),
		Method:         k.Method.String(),
		ComponentID:    r.ComponentID,
		SimulationID:   r.SimulationID,
		Tag:            r.Tag,
		Cells:          r.Cells,
	}
	if err := r.writer.appendSlice(meta, times, values); err != nil {
		return modelerr.NewIOError("recorder.flush", err)
	}
	r.pendingValues[k] = nil
	r.pendingTimes[k] = nil
	return nil
}

func (r *Recorder) specForVariable(name string) RecordSpec {
	for _, s := range r.specs {
		if s.Variable == name {
			return s
		}
	}
	return RecordSpec{Variable: name}
}

// flushPending writes out every already-completed but unflushed window
// without touching any in-flight accumulator.
func (r *Recorder) flushPending() error {
	for k := range r.tracks {
		if err := r.flush(k); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes every remaining buffered (completed) window-value.
// Partial (unclosed) windows are dropped per spec.md §4.5.
func (r *Recorder) Close() error {
	return r.flushPending()
}

// ResetCycle flushes whatever completed windows are still pending under
// the current Tag, then drops every track's in-flight accumulator, so a
// spin-up cycle boundary never leaks a partial window's samples into the
// next cycle (spec.md §4.6).
func (r *Recorder) ResetCycle() error {
	if err := r.flushPending(); err != nil {
		return err
	}
	for _, tr := range r.tracks {
		tr.reset(r.Cells)
	}
	return nil
}

// Snapshot captures partial accumulators and pending buffers for the
// Checkpoint subsystem.
type Snapshot struct {
	Tracks  map[trackKey]TrackSnapshot
	Pending map[trackKey][][]float64
	PendingTimes map[trackKey][]time.Time
}

// TrackSnapshot is one accumulator's serialisable state.
type TrackSnapshot struct {
	Ticks     int
	Sum, Min, Max, Last []float64
	HasSample bool
}

// Snapshot returns the Recorder's in-flight accumulator and pending
// buffer state.
func (r *Recorder) Snapshot() Snapshot {
	snap := Snapshot{Tracks: make(map[trackKey]TrackSnapshot), Pending: make(map[trackKey][][]float64), PendingTimes: make(map[trackKey][]time.Time)}
	for k, tr := range r.tracks {
		snap.Tracks[k] = TrackSnapshot{
			Ticks: tr.ticks,
			Sum:   append([]float64(nil), tr.sum...),
			Min:   append([]float64(nil), tr.min...),
			Max:   append([]float64(nil), tr.max...),
			Last:  append([]float64(nil), tr.last...),
			HasSample: tr.hasSample,
		}
	}
	for k, v := range r.pendingValues {
		snap.Pending[k] = v
		snap.PendingTimes[k] = r.pendingTimes[k]
	}
	return snap
}

// Restore replaces the Recorder's in-flight state with a previously
// captured Snapshot.
func (r *Recorder) Restore(snap Snapshot) {
	for k, ts := range snap.Tracks {
		tr, ok := r.tracks[k]
		if !ok {
			continue
		}
		tr.ticks = ts.Ticks
		tr.sum = append([]float64(nil), ts.Sum...)
		tr.min = append([]float64(nil), ts.Min...)
		tr.max = append([]float64(nil), ts.Max...)
		tr.last = append([]float64(nil), ts.Last...)
		tr.hasSample = ts.HasSample
	}
	for k, v := range snap.Pending {
		r.pendingValues[k] = v
		r.pendingTimes[k] = snap.PendingTimes[k]
	}
}

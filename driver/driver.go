// Package driver implements the Clock & Driver: the single-threaded,
// deterministic sequencer that walks the base period, fires each
// component in its declared order, mediates transfers through the
// Exchanger, folds results into the Recorder, and dumps Checkpoint
// frames at the configured dumping frequency (spec.md §4.6).
package driver

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosuri/uiprogress"
	"github.com/maseology/mmio"

	"github.com/maseology/cm4go/checkpoint"
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/exchanger"
	"github.com/maseology/cm4go/modelerr"
	"github.com/maseology/cm4go/recorder"
)

// Driver owns one wired model: its adapters (already in
// component.DeclaredOrder), the Exchanger mediating transfers between
// them, one Recorder per component, and the Clock pacing the whole run.
type Driver struct {
	SimulationID  string
	Clock         Clock
	Adapters      []*component.Adapter
	Exchanger     *exchanger.Exchanger
	Recorders     map[component.Category]*recorder.Recorder
	DumpFrequency time.Duration
	CheckpointDir string
	ShowProgress  bool

	tag string
}

// New builds a Driver, validating that every adapter's own step is an
// integer multiple of the Clock's Δt_fast — the precondition for the
// due-at-tick test (dueAt) that walk relies on.
func New(simulationID string, clock Clock, adapters []*component.Adapter, ex *exchanger.Exchanger, recorders map[component.Category]*recorder.Recorder) (*Driver, error) {
	if simulationID == "" {
		simulationID = uuid.NewString()
	}
	for _, a := range adapters {
		step := a.Component.TimeDomain.Step
		if step <= 0 || step%clock.DtFast != 0 {
			return nil, modelerr.NewConfigError("driver.New", "%s: step %v is not an integer multiple of Δt_fast %v", a.Name, step, clock.DtFast)
		}
	}
	ordered := make([]*component.Adapter, 0, len(adapters))
	byCat := make(map[component.Category]*component.Adapter, len(adapters))
	for _, a := range adapters {
		byCat[component.Category(a.Name)] = a
	}
	for _, cat := range component.DeclaredOrder {
		if a, ok := byCat[cat]; ok {
			ordered = append(ordered, a)
		}
	}
	return &Driver{
		SimulationID: simulationID, Clock: clock, Adapters: ordered,
		Exchanger: ex, Recorders: recorders,
	}, nil
}

func dueAt(now time.Time, a *component.Adapter) bool {
	step := a.Component.TimeDomain.Step
	elapsed := now.Sub(a.Component.TimeDomain.Start)
	return elapsed >= 0 && elapsed%step == 0
}

// Initialise calls every adapter's Initialise hook and seeds the
// Exchanger's carry-forward buffers with zero fields. initialisedStates
// is passed through to each hook (true on resume).
func (d *Driver) Initialise(initialisedStates bool) error {
	for _, a := range d.Adapters {
		if err := a.InitialiseComponent(initialisedStates); err != nil {
			return err
		}
	}
	if !initialisedStates {
		d.Exchanger.SeedZero()
	}
	return nil
}

// Finalise calls every adapter's Finalise hook and closes every
// Recorder, flushing whatever completed windows remain buffered.
func (d *Driver) Finalise() error {
	for _, a := range d.Adapters {
		if err := a.FinaliseComponent(); err != nil {
			return err
		}
	}
	for _, r := range d.Recorders {
		if err := r.Close(); err != nil {
			return err
		}
	}
	return nil
}

// SpinUp repeats the [Clock.Start, Clock.End] period `cycles` times,
// re-seeding nothing between cycles (each cycle's ending state feeds
// the next, per spec.md §4.6), tagging every Recorder's output with the
// cycle index, writing to a separate file per cycle, and resetting
// every Recorder's accumulators at each cycle boundary so a window that
// does not divide the cycle's own length cannot leak samples across it.
func (d *Driver) SpinUp(cycles int) error {
	if err := d.Initialise(false); err != nil {
		return err
	}
	for cycle := 0; cycle < cycles; cycle++ {
		if err := d.resetRecorders(); err != nil {
			return err
		}
		tag := fmt.Sprintf("spinup-%d", cycle)
		d.retagRecorders(tag)
		if err := d.walk(d.Clock.Start, nil); err != nil {
			return err
		}
	}
	return d.Finalise()
}

func (d *Driver) resetRecorders() error {
	for _, r := range d.Recorders {
		if err := r.ResetCycle(); err != nil {
			return err
		}
	}
	return nil
}

// Simulate runs once over [Clock.Start, Clock.End] as the main run,
// tagging Recorder output "run".
func (d *Driver) Simulate() error {
	if err := d.Initialise(false); err != nil {
		return err
	}
	d.retagRecorders("run")
	if err := d.walk(d.Clock.Start, nil); err != nil {
		return err
	}
	return d.Finalise()
}

// Resume restores every component's state, the Exchanger's buffers, and
// every Recorder's in-flight accumulators from a Checkpoint frame, then
// continues the run from frame.Now to Clock.End.
func (d *Driver) Resume(frame *checkpoint.Frame) error {
	for _, a := range d.Adapters {
		if cf, ok := frame.Components[a.Name]; ok {
			checkpoint.RestoreComponent(a, cf)
		}
	}
	if err := d.Exchanger.Restore(frame.Exchanger); err != nil {
		return err
	}
	for cat, r := range d.Recorders {
		if snap, ok := frame.Recorders[string(cat)]; ok {
			r.Restore(snap)
		}
	}
	if err := d.Initialise(true); err != nil {
		return err
	}
	tag := "run"
	if frame.SpinupCycle >= 0 {
		tag = fmt.Sprintf("spinup-%d", frame.SpinupCycle)
	}
	d.retagRecorders(tag)
	if err := d.walk(frame.Now, &frame.SpinupCycle); err != nil {
		return err
	}
	return d.Finalise()
}

func (d *Driver) retagRecorders(tag string) {
	d.tag = tag
	for _, r := range d.Recorders {
		r.Tag = tag
	}
}

// walk advances the clock from "from" to Clock.End, firing every due
// adapter in component.DeclaredOrder, publishing outwards and folding
// outputs and outwards into their Recorder, and dumping a Checkpoint
// frame whenever elapsed time crosses a DumpFrequency boundary.
func (d *Driver) walk(from time.Time, spinupCycle *int) error {
	tt := mmio.NewTimer()
	defer tt.Lap(fmt.Sprintf("%s: walk from %v to %v complete", d.SimulationID, from, d.Clock.End))
	var bar *uiprogress.Bar
	if d.ShowProgress {
		uiprogress.Start()
		bar = uiprogress.AddBar(d.Clock.Len()).AppendCompleted().PrependElapsed()
		defer uiprogress.Stop()
	}
	t := from
	for t.Before(d.Clock.End) {
		t = d.Clock.Calendar.AddDuration(t, d.Clock.DtFast)
		if bar != nil {
			bar.Incr()
		}
		for _, a := range d.Adapters {
			if !dueAt(t, a) {
				continue
			}
			cat := component.Category(a.Name)
			inwards := make(map[string][]float64, len(a.Component.Descriptor.Inwards))
			for _, in := range a.Component.Descriptor.Inwards {
				v, err := d.Exchanger.Collect(cat, in.Name)
				if err != nil {
					return err
				}
				inwards[in.Name] = v
			}
			outwards, outputs, err := a.Step(t, inwards)
			if err != nil {
				return err
			}
			for _, out := range a.Component.Descriptor.Outwards {
				if err := d.Exchanger.Publish(cat, out.Name, outwards[out.Name]); err != nil {
					return err
				}
			}
			if r, ok := d.Recorders[cat]; ok {
				states := a.States()
				folded := make(map[string][]float64, len(outputs)+len(outwards)+len(states))
				for k, v := range outputs {
					folded[k] = v
				}
				for k, v := range outwards {
					folded[k] = v
				}
				for name, s := range states {
					// a state's recordable value is its first division,
					// the same representative-division convention the
					// dummy components use internally.
					folded[name] = s.GetTimestep(0)[0]
				}
				if err := r.Fold(t, folded); err != nil {
					return err
				}
			}
		}
		if d.DumpFrequency > 0 && d.CheckpointDir != "" {
			if elapsed := t.Sub(d.Clock.Start); elapsed%d.DumpFrequency == 0 {
				if err := d.dump(t, spinupCycle); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (d *Driver) dump(now time.Time, spinupCycle *int) error {
	cycle := -1
	if spinupCycle != nil {
		cycle = *spinupCycle
	}
	frame := &checkpoint.Frame{
		SimulationID: d.SimulationID,
		Tag:          d.tag,
		Now:          now,
		SpinupCycle:  cycle,
		Components:   make(map[string]checkpoint.ComponentFrame, len(d.Adapters)),
		Exchanger:    d.Exchanger.Snapshot(),
		Recorders:    make(map[string]recorder.Snapshot, len(d.Recorders)),
	}
	for _, a := range d.Adapters {
		frame.Components[a.Name] = checkpoint.CaptureComponent(a)
	}
	for cat, r := range d.Recorders {
		frame.Recorders[string(cat)] = r.Snapshot()
	}
	mmio.MakeDir(d.CheckpointDir)
	return checkpoint.Dump(checkpoint.FramePath(d.CheckpointDir, d.tag, now), frame)
}

// Package checkpoint implements the model's dump/resume mechanism: a
// single gob-encoded Frame captures every component's state history,
// the Exchanger's in-flight buffers, and every Recorder's partial
// accumulators, so a run can be resumed byte-identically from the
// dumping frequency boundary at which it was written (spec.md §4.7).
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/exchanger"
	"github.com/maseology/cm4go/recorder"
)

// ComponentFrame is one component's dumped state.
type ComponentFrame struct {
	States map[string]component.StateSnapshot
	Shelf  interface{} // opaque; caller must gob.Register its concrete type
}

// Frame is the complete state of a running simulation at one instant,
// always a dumping-frequency boundary.
type Frame struct {
	SimulationID string
	Tag          string // "run" or "spinup-N"; the resume selector's second key
	Now          time.Time
	SpinupCycle  int // -1 during the main simulation, >=0 during spin-up
	Components   map[string]ComponentFrame
	Exchanger    exchanger.Snapshot
	Recorders    map[string]recorder.Snapshot
}

// frameFileTimeLayout sorts lexically the same as chronologically, so a
// directory listing of frame files reads in dump order.
const frameFileTimeLayout = "20060102T150405.000000000Z"

// FramePath returns the file a dumped Frame for (tag, now) is written
// to: one file per dumping boundary, so successive dumps never
// overwrite an earlier boundary the way a single fixed path would
// (spec.md §4.7's resume-to-any-prior-boundary contract).
func FramePath(dir, tag string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.gob", tag, now.UTC().Format(frameFileTimeLayout)))
}

// Resume locates and loads the latest dumped frame for tag with
// Frame.Now at or before at, per spec.md §4.7: "locate the latest frame
// with frame.datetime <= at matching tag."
func Resume(dir, tag string, at time.Time) (*Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint.Resume: %w", err)
	}
	prefix, suffix := tag+".", ".gob"
	var best *Frame
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		frame, err := Load(filepath.Join(dir, name))
		if err != nil {
			continue // a partial/corrupt frame must not abort resume; skip it
		}
		if frame.Tag != tag || frame.Now.After(at) {
			continue
		}
		if best == nil || frame.Now.After(best.Now) {
			best = frame
		}
	}
	if best == nil {
		return nil, fmt.Errorf("checkpoint.Resume: no %q frame at or before %v in %s", tag, at, dir)
	}
	return best, nil
}

// Dump gob-encodes frame to fp, overwriting any existing file. A failed
// dump leaves the previous checkpoint file untouched.
func Dump(fp string, frame *Frame) error {
	tmp := fp + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("checkpoint.Dump: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(frame); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("checkpoint.Dump: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("checkpoint.Dump: %w", err)
	}
	if err := os.Rename(tmp, fp); err != nil {
		return fmt.Errorf("checkpoint.Dump: %w", err)
	}
	return nil
}

// Load decodes a Frame previously written by Dump.
func Load(fp string) (*Frame, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("checkpoint.Load: %w", err)
	}
	defer f.Close()
	var frame Frame
	if err := gob.NewDecoder(f).Decode(&frame); err != nil {
		return nil, fmt.Errorf("checkpoint.Load: %w", err)
	}
	return &frame, nil
}

// CaptureComponent builds a ComponentFrame from an adapter's live state.
func CaptureComponent(a *component.Adapter) ComponentFrame {
	states := make(map[string]component.StateSnapshot, len(a.States()))
	for name, s := range a.States() {
		states[name] = s.Snapshot()
	}
	return ComponentFrame{States: states, Shelf: a.Shelf}
}

// RestoreComponent writes a ComponentFrame back into an adapter's live
// state, ahead of the adapter's own Initialise call (which must honour
// RunContext.InitialisedStates and leave restored state untouched).
func RestoreComponent(a *component.Adapter, cf ComponentFrame) {
	for name, snap := range cf.States {
		if s, ok := a.States()[name]; ok {
			s.Restore(snap)
		}
	}
	a.Shelf = cf.Shelf
}

// Package model assembles a runnable simulation from a configuration
// document and a set of externally supplied scientific components: it
// is the top-level entry point spec.md §6 and §7 describe, wiring
// Grid, TimeDomain, DataSet, ComponentAdapter, Exchanger, Recorder and
// Driver together and handling the failure/resume contract.
package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/maseology/mmio"

	"github.com/maseology/cm4go/checkpoint"
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/config"
	"github.com/maseology/cm4go/driver"
	"github.com/maseology/cm4go/exchanger"
	"github.com/maseology/cm4go/modelerr"
	"github.com/maseology/cm4go/recorder"
	"github.com/maseology/cm4go/timedomain"
)

// Model is one fully wired simulation: its configuration document, the
// Exchanger and per-component Recorders it built, and the Driver that
// sequences it.
type Model struct {
	Identifier      string
	ConfigDirectory string
	SavingDirectory string
	Doc             *config.Document
	Driver          *driver.Driver
	Exchanger       *exchanger.Exchanger
	Recorders       map[component.Category]*recorder.Recorder
}

// FromConfig loads a configuration document from configDir/configFile
// and wires it against a caller-supplied set of scientific components,
// one per declared category. Grid, TimeDomain, and DataSet plumbing
// described in the configuration is resolved here; the scientific
// integration itself (Initialise/Run/Finalise) is the caller's.
func FromConfig(configDir, configFile string, components map[component.Category]*component.Component) (*Model, error) {
	doc, err := config.Load(filepath.Join(configDir, configFile))
	if err != nil {
		return nil, err
	}
	cal, err := config.BuildCalendar(doc)
	if err != nil {
		return nil, err
	}
	grids, err := config.BuildGrids(doc)
	if err != nil {
		return nil, err
	}
	sources, err := config.BuildSources(doc, grids, cal)
	if err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, doc.Clock.Start)
	if err != nil {
		return nil, modelerr.NewConfigError("model.FromConfig", "clock.start: %v", err)
	}
	end, err := time.Parse(time.RFC3339, doc.Clock.End)
	if err != nil {
		return nil, modelerr.NewConfigError("model.FromConfig", "clock.end: %v", err)
	}

	adapters := make([]*component.Adapter, 0, len(components))
	timeDomains := make([]*timedomain.TimeDomain, 0, len(components))
	timeDomainCats := make([]component.Category, 0, len(components))
	recorders := make(map[component.Category]*recorder.Recorder, len(components))
	for cat, comp := range components {
		cc, ok := doc.Components[string(cat)]
		if !ok {
			return nil, modelerr.NewConfigError("model.FromConfig", "no configuration for component %q", cat)
		}
		grid, ok := grids[cc.Grid]
		if !ok {
			return nil, modelerr.NewConfigError("model.FromConfig", "%s: unknown grid %q", cat, cc.Grid)
		}
		step, err := time.ParseDuration(cc.TimeStep)
		if err != nil {
			return nil, modelerr.NewConfigError("model.FromConfig", "%s: time_step: %v", cat, err)
		}
		td, err := timedomain.Build(start, end, step, cal)
		if err != nil {
			return nil, err
		}
		comp.Descriptor.Category = cat
		comp.Grid = grid
		comp.TimeDomain = td
		adapter, err := component.Build(comp, cc.Parameters, cc.Constants, sources)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
		timeDomains = append(timeDomains, td)
		timeDomainCats = append(timeDomainCats, cat)

		specs, err := config.BuildRecordSpecs(doc, string(cat))
		if err != nil {
			return nil, err
		}
		ny, nx := grid.Shape()
		sliceSize := doc.RecorderSlice
		rec, err := recorder.New(string(cat), doc.SimulationID, "run", step,
			filepath.Join(doc.SavingDirectory, "records"), ny*nx, sliceSize, specs)
		if err != nil {
			return nil, err
		}
		recorders[cat] = rec
	}

	for i := 0; i < len(timeDomains); i++ {
		for j := i + 1; j < len(timeDomains); j++ {
			if !timeDomains[i].Aligns(timeDomains[j]) {
				return nil, modelerr.NewConfigError("model.FromConfig",
					"%s (step %v) and %s (step %v) cannot couple: impossible time alignment",
					timeDomainCats[i], timeDomains[i].Step, timeDomainCats[j], timeDomains[j].Step)
			}
		}
	}
	dtFast := timedomain.GCDStep(timeDomains)

	ex, err := exchanger.New(adapters)
	if err != nil {
		return nil, err
	}
	clock, err := driver.NewClock(cal, start, end, dtFast)
	if err != nil {
		return nil, err
	}
	drv, err := driver.New(doc.SimulationID, clock, adapters, ex, recorders)
	if err != nil {
		return nil, err
	}
	for _, rec := range recorders {
		rec.SimulationID = drv.SimulationID // the driver's, defaulted when the document omits one
	}
	drv.ShowProgress = doc.ShowProgress
	if doc.Checkpoint.DumpFrequency != "" {
		dumpEvery, err := time.ParseDuration(doc.Checkpoint.DumpFrequency)
		if err != nil {
			return nil, modelerr.NewConfigError("model.FromConfig", "checkpoint.dump_frequency: %v", err)
		}
		drv.DumpFrequency = dumpEvery
		dir := doc.Checkpoint.Path
		if dir == "" {
			dir = "checkpoints"
		}
		drv.CheckpointDir = filepath.Join(doc.SavingDirectory, dir)
	}

	return &Model{
		Identifier: drv.SimulationID, ConfigDirectory: configDir, SavingDirectory: doc.SavingDirectory,
		Doc: doc, Driver: drv, Exchanger: ex, Recorders: recorders,
	}, nil
}

// SpinUp runs the configured number of spin-up cycles.
func (m *Model) SpinUp() error {
	if m.Doc.SpinUp.Cycles <= 0 {
		return nil
	}
	if err := m.Driver.SpinUp(m.Doc.SpinUp.Cycles); err != nil {
		return m.fail(err)
	}
	return nil
}

// Simulate runs the main simulation once.
func (m *Model) Simulate() error {
	if err := m.Driver.Simulate(); err != nil {
		return m.fail(err)
	}
	return nil
}

// Resume locates the latest dumped frame tagged tag with a datetime at
// or before at (spec.md §4.7's `resume(tag, at)` contract) and continues
// the run from it to the configured end.
func (m *Model) Resume(tag string, at time.Time) error {
	frame, err := checkpoint.Resume(m.Driver.CheckpointDir, tag, at)
	if err != nil {
		return m.fail(err)
	}
	if err := m.Driver.Resume(frame); err != nil {
		return m.fail(err)
	}
	return nil
}

// ToConfig writes the model's configuration document back out, e.g. to
// accompany its output with the exact settings that produced it.
func (m *Model) ToConfig(path string) error { return config.Save(path, m.Doc) }

// fail writes a structured failure.json to the saving directory
// alongside the last dump, then returns err unchanged.
func (m *Model) fail(err error) error {
	mmio.MakeDir(m.SavingDirectory)
	rec := modelerr.FailureRecord{Taxonomy: modelerr.Taxonomy(err), DateTime: time.Now(), Message: err.Error()}
	if b, jerr := json.MarshalIndent(rec, "", "  "); jerr == nil {
		_ = os.WriteFile(filepath.Join(m.SavingDirectory, "failure.json"), b, 0644)
	}
	return err
}

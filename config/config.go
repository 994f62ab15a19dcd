// Package config implements the hierarchical configuration document
// (spec.md §6): a single YAML file naming the simulation identifier,
// calendar, clock, spin-up plan, checkpoint policy, per-component
// grids/timesteps/parameters/constants, driving-data sources, and the
// record requests, from which a runnable model is built.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maseology/cm4go/modelerr"
)

// GridConfig describes one rectilinear grid by its cell bounds and
// optional auxiliary fields, each a flat little-endian file written in
// row-major (y, then x) order: float32 values for the mask and area
// files, and an int32 (di, dj) pair per cell for the flow-direction file.
type GridConfig struct {
	YBounds           []float64 `yaml:"y_bounds"`
	XBounds           []float64 `yaml:"x_bounds"`
	MaskFile          string    `yaml:"mask_file,omitempty"`
	FlowDirectionFile string    `yaml:"flow_direction_file,omitempty"`
	AreaFile          string    `yaml:"area_file,omitempty"`
}

// ComponentConfig binds one declared category to a grid, a timestep,
// and its parameter/constant values.
type ComponentConfig struct {
	Grid       string             `yaml:"grid"`
	TimeStep   string             `yaml:"time_step"`
	Parameters map[string]float64 `yaml:"parameters,omitempty"`
	Constants  map[string]float64 `yaml:"constants,omitempty"`
}

// SourceConfig describes one driving-data field made available to
// components through the DataSet.
type SourceConfig struct {
	Grid      string   `yaml:"grid"`
	Kind      string   `yaml:"kind"` // dynamic, static, climatologic
	Frequency string   `yaml:"frequency,omitempty"`
	Units     string   `yaml:"units,omitempty"`
	Path      string   `yaml:"path"`
	Times     []string `yaml:"times,omitempty"`
}

// WindowConfig requests one aggregation window for a recorded variable.
type WindowConfig struct {
	Window  string   `yaml:"window"`
	Methods []string `yaml:"methods"`
}

// RecordConfig requests recording of one component variable.
type RecordConfig struct {
	Variable string         `yaml:"variable"`
	Units    string         `yaml:"units,omitempty"`
	Windows  []WindowConfig `yaml:"windows"`
}

// CheckpointConfig configures dump frequency and destination. Path
// names a directory, not a file: one frame file is written per dumping
// boundary (see checkpoint.FramePath), so `resume(tag, at)` can select
// among every boundary a run has crossed rather than only the last.
type CheckpointConfig struct {
	DumpFrequency string `yaml:"dump_frequency,omitempty"`
	Path          string `yaml:"path,omitempty"`
}

// ClockConfig configures the run's overall time span. DtFast is
// retained for documentation and for callers that build a Clock
// directly; model.FromConfig instead derives Δt_fast itself as the
// greatest-common-divisor of the wired components' own steps, after
// checking every pair aligns (spec.md §4.2/§7).
type ClockConfig struct {
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	DtFast string `yaml:"dt_fast,omitempty"`
}

// SpinUpConfig configures the optional spin-up phase.
type SpinUpConfig struct {
	Cycles int `yaml:"cycles,omitempty"`
}

// Document is the top-level configuration document.
type Document struct {
	SimulationID    string                        `yaml:"simulation_id,omitempty"`
	SavingDirectory string                        `yaml:"saving_directory"`
	Calendar        string                        `yaml:"calendar"`
	Clock           ClockConfig                   `yaml:"clock"`
	SpinUp          SpinUpConfig                  `yaml:"spin_up,omitempty"`
	Checkpoint      CheckpointConfig              `yaml:"checkpoint,omitempty"`
	Grids           map[string]GridConfig         `yaml:"grids"`
	Components      map[string]ComponentConfig    `yaml:"components"`
	Sources         map[string]SourceConfig       `yaml:"sources,omitempty"`
	Records         map[string][]RecordConfig     `yaml:"records,omitempty"`
	RecorderSlice   int                           `yaml:"recorder_slice_size,omitempty"`
	ShowProgress    bool                          `yaml:"show_progress,omitempty"`
}

// Load reads and parses a Document from a YAML file.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, modelerr.NewIOError("config.Load", err)
	}
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, modelerr.NewConfigError("config.Load", "%v", err)
	}
	return &doc, nil
}

// Save writes doc back out as YAML, the counterpart used by Model's
// ToConfig for reproducing a run's exact settings alongside its output.
func Save(path string, doc *Document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return modelerr.NewConfigError("config.Save", "%v", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return modelerr.NewIOError("config.Save", err)
	}
	return nil
}

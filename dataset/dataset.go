// Package dataset implements the field store (DataSet): a named
// collection of gridded, possibly time-varying numeric fields. The
// underlying gridded-field I/O (CF-NetCDF or otherwise) is an external
// collaborator; this package only defines the Source interface such a
// reader would implement, plus an in-memory implementation used by
// tests and by the dummy components.
package dataset

import (
	"time"

	"github.com/maseology/cm4go/modelerr"
	"github.com/maseology/cm4go/space"
)

// Kind classifies a declared input per spec.md §4.3.
type Kind int

const (
	KindDynamic Kind = iota
	KindStatic
	KindClimatologic
)

// ClimatologyFrequency names the climatologic bucketing scheme.
type ClimatologyFrequency string

const (
	FrequencyMonthly    ClimatologyFrequency = "monthly"
	FrequencySeasonal   ClimatologyFrequency = "seasonal"
	FrequencyDayOfYear  ClimatologyFrequency = "day_of_year"
)

// Field is a named gridded value, optionally time-varying (dynamic) or
// bucketed (climatologic); static fields carry a single flattened slice.
type Field struct {
	Name  string
	Units string
	Grid  *space.Grid

	// Times is nil for static/climatologic fields; for dynamic fields it
	// gives the timestamp of each entry in Values.
	Times []time.Time

	// Values holds one flattened (ny*nx) slice per Times entry (dynamic),
	// per bucket (climatologic), or a single entry (static).
	Values [][]float64
}

// AtTime returns the flattened value slice for the dynamic field's
// timestep that is current at or immediately before t.
func (f *Field) AtTime(t time.Time) ([]float64, error) {
	if f.Times == nil {
		if len(f.Values) != 1 {
			return nil, modelerr.NewConfigError("dataset.Field.AtTime", "field %s is not dynamic", f.Name)
		}
		return f.Values[0], nil
	}
	idx := -1
	for i, ft := range f.Times {
		if !ft.After(t) {
			idx = i
		} else {
			break
		}
	}
	if idx < 0 {
		return nil, modelerr.NewIOError("dataset.Field.AtTime", errNoData(f.Name, t))
	}
	return f.Values[idx], nil
}

// AtBucket returns the flattened value slice for a climatologic field's
// 0-based bucket index (month 0-11, season 0-3, or day-of-year minus
// one).
func (f *Field) AtBucket(bucket int) ([]float64, error) {
	if bucket < 0 || bucket >= len(f.Values) {
		return nil, modelerr.NewConfigError("dataset.Field.AtBucket", "bucket %d out of range for field %s", bucket, f.Name)
	}
	return f.Values[bucket], nil
}

type noDataErr struct {
	name string
	t    time.Time
}

func (e noDataErr) Error() string { return "dataset: no data for " + e.name + " at " + e.t.String() }
func errNoData(name string, t time.Time) error { return noDataErr{name, t} }

// Source is the interface an external gridded-field I/O library
// implements to expose driving data to the model by name.
type Source interface {
	Select(name string) (*Field, error)
}

// DataSet is a named collection of Fields, interrogable by name. It is
// the in-memory Source implementation used for tests, dummy components,
// and anywhere a full CF-NetCDF backend is not required.
type DataSet struct {
	fields map[string]*Field
}

// New builds an empty DataSet.
func New() *DataSet { return &DataSet{fields: make(map[string]*Field)} }

// Add registers a field under its own name.
func (d *DataSet) Add(f *Field) { d.fields[f.Name] = f }

// Select implements Source.
func (d *DataSet) Select(name string) (*Field, error) {
	f, ok := d.fields[name]
	if !ok {
		return nil, modelerr.NewConfigError("dataset.DataSet.Select", "unknown field %q", name)
	}
	return f, nil
}

// Names lists every field held by the DataSet.
func (d *DataSet) Names() []string {
	out := make([]string, 0, len(d.fields))
	for n := range d.fields {
		out = append(out, n)
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/maseology/mmio"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dataset"
	"github.com/maseology/cm4go/modelerr"
	"github.com/maseology/cm4go/recorder"
	"github.com/maseology/cm4go/space"
)

// BuildCalendar resolves the Document's named calendar.
func BuildCalendar(doc *Document) (calendar.Calendar, error) {
	var kind calendar.Kind
	switch doc.Calendar {
	case "", "gregorian":
		kind = calendar.Gregorian
	case "noleap", "365_day":
		kind = calendar.NoLeap
	case "360_day":
		kind = calendar.Day360
	default:
		return calendar.Calendar{}, modelerr.NewConfigError("config.BuildCalendar", "unknown calendar %q", doc.Calendar)
	}
	return calendar.New(kind)
}

// BuildGrids constructs every declared Grid, keyed by its config name.
func BuildGrids(doc *Document) (map[string]*space.Grid, error) {
	out := make(map[string]*space.Grid, len(doc.Grids))
	for name, gc := range doc.Grids {
		ny, nx := len(gc.YBounds)-1, len(gc.XBounds)-1
		var mask [][]bool
		if gc.MaskFile != "" {
			flat, err := readFloat32(gc.MaskFile)
			if err != nil {
				return nil, err
			}
			mask = unflattenMask(flat, ny, nx)
		}
		var flowDir [][2]int
		if gc.FlowDirectionFile != "" {
			ints, err := readInt32(gc.FlowDirectionFile)
			if err != nil {
				return nil, err
			}
			flowDir = unflattenFlowDir(ints, ny*nx)
		}
		var area [][]float64
		if gc.AreaFile != "" {
			flat, err := readFloat32(gc.AreaFile)
			if err != nil {
				return nil, err
			}
			area = unflatten(flat, ny, nx)
		}
		g, err := space.Build(gc.YBounds, gc.XBounds, mask, flowDir, area)
		if err != nil {
			return nil, err
		}
		out[name] = g
	}
	return out, nil
}

// BuildSources constructs a dataset.DataSet from every declared source.
func BuildSources(doc *Document, grids map[string]*space.Grid, cal calendar.Calendar) (*dataset.DataSet, error) {
	ds := dataset.New()
	for name, sc := range doc.Sources {
		g, ok := grids[sc.Grid]
		if !ok {
			return nil, modelerr.NewConfigError("config.BuildSources", "source %s: unknown grid %q", name, sc.Grid)
		}
		flat, err := readFloat32(sc.Path)
		if err != nil {
			return nil, err
		}
		cells := g.NY * g.NX
		f := &dataset.Field{Name: name, Units: sc.Units, Grid: g}
		switch sc.Kind {
		case "static":
			f.Values = [][]float64{flat}
		case "climatologic":
			n := bucketCount(dataset.ClimatologyFrequency(sc.Frequency))
			f.Values = splitSlices(flat, n, cells)
		default: // dynamic
			times := make([]time.Time, len(sc.Times))
			for i, s := range sc.Times {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return nil, modelerr.NewConfigError("config.BuildSources", "source %s: bad time %q: %v", name, s, err)
				}
				times[i] = t
			}
			f.Times = times
			f.Values = splitSlices(flat, len(times), cells)
		}
		ds.Add(f)
	}
	return ds, nil
}

func bucketCount(freq dataset.ClimatologyFrequency) int {
	switch freq {
	case dataset.FrequencySeasonal:
		return 4
	case dataset.FrequencyDayOfYear:
		return 365
	default:
		return 12
	}
}

// BuildRecordSpecs translates one category's record requests into
// recorder.RecordSpec values.
func BuildRecordSpecs(doc *Document, category string) ([]recorder.RecordSpec, error) {
	var specs []recorder.RecordSpec
	for _, rc := range doc.Records[category] {
		spec := recorder.RecordSpec{Variable: rc.Variable, Units: rc.Units}
		for _, wc := range rc.Windows {
			window, err := time.ParseDuration(wc.Window)
			if err != nil {
				return nil, modelerr.NewConfigError("config.BuildRecordSpecs", "%s: bad window %q: %v", rc.Variable, wc.Window, err)
			}
			methods := make([]component.Aggregation, len(wc.Methods))
			for i, m := range wc.Methods {
				agg, err := component.ParseAggregation(m)
				if err != nil {
					return nil, err
				}
				methods[i] = agg
			}
			spec.Windows = append(spec.Windows, recorder.WindowRequest{Window: window, Methods: methods})
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// readFloat32 reads a flat little-endian float32 field file, one value
// at a time via mmio.ReadFloat32, mirroring the teacher's own binary
// field readers (prep/buildFORC.go).
func readFloat32(path string) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, modelerr.NewIOError("config.readFloat32", fmt.Errorf("%v", r))
		}
	}()
	stat, statErr := os.Stat(path)
	if statErr != nil {
		return nil, modelerr.NewIOError("config.readFloat32", statErr)
	}
	n := int(stat.Size() / 4)
	b := mmio.OpenBinary(path)
	out = make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(mmio.ReadFloat32(b))
	}
	return out, nil
}

func readInt32(path string) (out []int32, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, modelerr.NewIOError("config.readInt32", fmt.Errorf("%v", r))
		}
	}()
	stat, statErr := os.Stat(path)
	if statErr != nil {
		return nil, modelerr.NewIOError("config.readInt32", statErr)
	}
	n := int(stat.Size() / 4)
	b := mmio.OpenBinary(path)
	out = make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = mmio.ReadInt32(b)
	}
	return out, nil
}

func unflatten(flat []float64, ny, nx int) [][]float64 {
	out := make([][]float64, ny)
	for i := range out {
		out[i] = flat[i*nx : (i+1)*nx]
	}
	return out
}

func unflattenMask(flat []float64, ny, nx int) [][]bool {
	out := make([][]bool, ny)
	for i := range out {
		out[i] = make([]bool, nx)
		for j := range out[i] {
			out[i][j] = flat[i*nx+j] != 0
		}
	}
	return out
}

func unflattenFlowDir(ints []int32, cells int) [][2]int {
	out := make([][2]int, cells)
	for i := 0; i < cells; i++ {
		out[i] = [2]int{int(ints[2*i]), int(ints[2*i+1])}
	}
	return out
}

func splitSlices(flat []float64, n, cells int) [][]float64 {
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = flat[i*cells : (i+1)*cells]
	}
	return out
}

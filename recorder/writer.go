package recorder

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maseology/mmio"
)

// recordMeta is the JSON sidecar accompanying every .bin record file,
// enough to interpret the raw float32 stream without re-reading the
// simulation's configuration.
type recordMeta struct {
	SourceVariable string   `json:"source_variable"`
	Units          string   `json:"units"`
	WindowSeconds  int64    `json:"window_seconds"`
	Method         string   `json:"method"`
	ComponentID    string   `json:"component_id"`
	SimulationID   string   `json:"simulation_id"`
	Tag            string   `json:"tag"`
	Cells          int      `json:"cells"`
	WindowEnds     []string `json:"window_ends,omitempty"` // appended to, never rewritten wholesale on flush
}

// fileWriter appends completed-window slices to a per-track pair of
// files: "<track>.bin" (little-endian float32, cell-major within each
// window, windows concatenated in arrival order) and "<track>.json"
// (the running recordMeta, rewritten on every flush — cheap relative
// to the .bin append since it never holds sample data).
type fileWriter struct {
	dir string
}

func newFileWriter(dir string) *fileWriter { return &fileWriter{dir: dir} }

func trackFileBase(meta recordMeta) string {
	return fmt.Sprintf("%s.%s.%ds.%s", meta.ComponentID, meta.SourceVariable, meta.WindowSeconds, meta.Method)
}

// appendSlice writes one flush's worth of completed window-values as a
// single contiguous binary.Write call followed by one Write syscall, so
// a flush cannot interleave with another and there is only one place a
// short write can happen; this bounds the damage of a failed flush to
// at most one trailing partial slice, it is not crash-atomic the way
// checkpoint.Dump's temp-file-then-rename is.
func (w *fileWriter) appendSlice(meta recordMeta, times []time.Time, values [][]float64) error {
	dir := filepath.Join(w.dir, meta.Tag)
	mmio.MakeDir(dir)
	base := trackFileBase(meta)
	binPath := filepath.Join(dir, base+".bin")
	jsonPath := filepath.Join(dir, base+".json")

	flat := make([]float32, 0, len(values)*meta.Cells)
	for _, v := range values {
		for _, x := range v {
			flat = append(flat, float32(x))
		}
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, flat); err != nil {
		return err
	}
	f, err := os.OpenFile(binPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	existing := readMeta(jsonPath)
	if existing != nil {
		meta.WindowEnds = existing.WindowEnds
	}
	for _, t := range times {
		meta.WindowEnds = append(meta.WindowEnds, t.UTC().Format(time.RFC3339))
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(jsonPath, metaBytes, 0644)
}

func readMeta(path string) *recordMeta {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m recordMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return &m
}

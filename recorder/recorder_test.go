package recorder

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maseology/cm4go/component"
)

func TestFoldClosesWindowAndComputesMean(t *testing.T) {
	dir := t.TempDir()
	r, err := New("surfacelayer", "sim1", "run", time.Hour, dir, 1, 1, []RecordSpec{
		{Variable: "output_x", Units: "mm", Windows: []WindowRequest{
			{Window: 2 * time.Hour, Methods: []component.Aggregation{component.Mean, component.Sum}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Fold(t0.Add(time.Hour), map[string][]float64{"output_x": {2}}); err != nil {
		t.Fatal(err)
	}
	if err := r.Fold(t0.Add(2*time.Hour), map[string][]float64{"output_x": {4}}); err != nil {
		t.Fatal(err)
	}
	meanKey := trackKey{Variable: "output_x", Window: 2 * time.Hour, Method: component.Mean}
	sumKey := trackKey{Variable: "output_x", Window: 2 * time.Hour, Method: component.Sum}
	if _, ok := r.tracks[meanKey]; !ok {
		t.Fatal("expected a mean track")
	}
	// SliceSize=1 means the window flushed immediately: pending buffers are empty.
	if len(r.pendingValues[meanKey]) != 0 || len(r.pendingValues[sumKey]) != 0 {
		t.Fatal("expected the closed window to have flushed at SliceSize=1")
	}
	b, err := os.ReadFile(filepath.Join(dir, "run", "surfacelayer.output_x.7200s.mean.bin"))
	if err != nil {
		t.Fatal(err)
	}
	var mean float32
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &mean); err != nil {
		t.Fatal(err)
	}
	if mean != 3 {
		t.Fatalf("got mean %v, want 3 (mean of 2 and 4)", mean)
	}
}

func TestFoldBuffersUntilSliceSize(t *testing.T) {
	dir := t.TempDir()
	r, err := New("surfacelayer", "sim1", "run", time.Hour, dir, 1, 3, []RecordSpec{
		{Variable: "output_x", Units: "mm", Windows: []WindowRequest{
			{Window: time.Hour, Methods: []component.Aggregation{component.Mean}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	k := trackKey{Variable: "output_x", Window: time.Hour, Method: component.Mean}
	if err := r.Fold(t0.Add(time.Hour), map[string][]float64{"output_x": {1}}); err != nil {
		t.Fatal(err)
	}
	if err := r.Fold(t0.Add(2*time.Hour), map[string][]float64{"output_x": {2}}); err != nil {
		t.Fatal(err)
	}
	if len(r.pendingValues[k]) != 2 {
		t.Fatalf("expected 2 buffered window-values before the slice fills, got %d", len(r.pendingValues[k]))
	}
	if err := r.Fold(t0.Add(3*time.Hour), map[string][]float64{"output_x": {3}}); err != nil {
		t.Fatal(err)
	}
	if len(r.pendingValues[k]) != 0 {
		t.Fatal("expected the slice to flush once SliceSize is reached")
	}
}

func TestCloseDropsPartialWindow(t *testing.T) {
	dir := t.TempDir()
	r, err := New("surfacelayer", "sim1", "run", time.Hour, dir, 1, 1, []RecordSpec{
		{Variable: "output_x", Units: "mm", Windows: []WindowRequest{
			{Window: 3 * time.Hour, Methods: []component.Aggregation{component.Sum}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Fold(t0.Add(time.Hour), map[string][]float64{"output_x": {1}}); err != nil {
		t.Fatal(err)
	}
	// window never closes (only 1 of 3 ticks folded); Close must not error and must drop it.
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestResetCycleDropsPartialWindowAndFlushesPending(t *testing.T) {
	dir := t.TempDir()
	r, err := New("surfacelayer", "sim1", "spinup-0", time.Hour, dir, 1, 5, []RecordSpec{
		{Variable: "output_x", Units: "mm", Windows: []WindowRequest{
			{Window: time.Hour, Methods: []component.Aggregation{component.Sum}},
			{Window: 3 * time.Hour, Methods: []component.Aggregation{component.Sum}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	// the 1h window closes and is buffered pending (SliceSize=5); the 3h
	// window is left with one of three ticks folded, a partial window.
	if err := r.Fold(t0.Add(time.Hour), map[string][]float64{"output_x": {5}}); err != nil {
		t.Fatal(err)
	}
	hourKey := trackKey{Variable: "output_x", Window: time.Hour, Method: component.Sum}
	threeHourKey := trackKey{Variable: "output_x", Window: 3 * time.Hour, Method: component.Sum}
	if len(r.pendingValues[hourKey]) != 1 {
		t.Fatalf("expected the closed 1h window buffered pending, got %d", len(r.pendingValues[hourKey]))
	}
	if r.tracks[threeHourKey].ticks != 1 {
		t.Fatalf("expected the 3h window to have one tick folded, got %d", r.tracks[threeHourKey].ticks)
	}
	if err := r.ResetCycle(); err != nil {
		t.Fatal(err)
	}
	// the pending 1h window must have been flushed (not simply dropped)...
	if len(r.pendingValues[hourKey]) != 0 {
		t.Fatalf("expected ResetCycle to flush the pending window, got %d still buffered", len(r.pendingValues[hourKey]))
	}
	// ...and the partial 3h window must not carry its one tick into the next cycle.
	if r.tracks[threeHourKey].ticks != 0 {
		t.Fatalf("expected ResetCycle to drop the partial window's ticks, got %d", r.tracks[threeHourKey].ticks)
	}
	if r.tracks[threeHourKey].sum[0] != 0 {
		t.Fatalf("expected ResetCycle to zero the partial window's sum, got %v", r.tracks[threeHourKey].sum[0])
	}
}

func TestNewRejectsWindowNotMultipleOfDt(t *testing.T) {
	dir := t.TempDir()
	_, err := New("c", "sim1", "run", time.Hour, dir, 1, 1, []RecordSpec{
		{Variable: "output_x", Windows: []WindowRequest{
			{Window: 90 * time.Minute, Methods: []component.Aggregation{component.Mean}},
		}},
	})
	if err == nil {
		t.Fatal("expected a ConfigError for a window that is not a multiple of dt")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := New("c", "sim1", "run", time.Hour, dir, 1, 5, []RecordSpec{
		{Variable: "output_x", Windows: []WindowRequest{
			{Window: 2 * time.Hour, Methods: []component.Aggregation{component.Sum}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Fold(t0.Add(time.Hour), map[string][]float64{"output_x": {7}}); err != nil {
		t.Fatal(err)
	}
	snap := r.Snapshot()

	r2, err := New("c", "sim1", "run", time.Hour, dir, 1, 5, []RecordSpec{
		{Variable: "output_x", Windows: []WindowRequest{
			{Window: 2 * time.Hour, Methods: []component.Aggregation{component.Sum}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	r2.Restore(snap)
	k := trackKey{Variable: "output_x", Window: 2 * time.Hour, Method: component.Sum}
	if r2.tracks[k].sum[0] != 7 {
		t.Fatalf("restored accumulator should carry the partial sum 7, got %v", r2.tracks[k].sum[0])
	}
	if r2.tracks[k].ticks != 1 {
		t.Fatalf("restored accumulator should carry ticks=1, got %d", r2.tracks[k].ticks)
	}
}

package space

import (
	"math"
	"testing"
)

func TestBuildRejectsNonMonotoneBounds(t *testing.T) {
	if _, err := Build([]float64{0, 1, 0.5}, []float64{0, 1}, nil, nil, nil); err == nil {
		t.Fatal("expected an error for non-monotone y bounds")
	}
}

func TestBuildRejectsMaskShapeMismatch(t *testing.T) {
	mask := [][]bool{{true}}
	if _, err := Build([]float64{0, 1, 2}, []float64{0, 1}, mask, nil, nil); err == nil {
		t.Fatal("expected a shape error for a mask sized for the wrong grid")
	}
}

func TestBuildAcceptsExplicitAreaOverride(t *testing.T) {
	area := [][]float64{{42, 42}}
	g, err := Build([]float64{0, 1}, []float64{0, 1, 2}, nil, nil, area)
	if err != nil {
		t.Fatal(err)
	}
	if g.CellArea(0, 0) != 42 || g.CellArea(0, 1) != 42 {
		t.Fatal("explicit area override should replace the computed geometry")
	}
}

func TestComputedAreaIsPositiveAndSymmetricAboutEquator(t *testing.T) {
	g, err := Build([]float64{-1, 0, 1}, []float64{0, 1}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.CellArea(0, 0) <= 0 || g.CellArea(1, 0) <= 0 {
		t.Fatal("cell areas must be positive")
	}
	if math.Abs(g.CellArea(0, 0)-g.CellArea(1, 0)) > 1e-6 {
		t.Fatal("bands symmetric about the equator should have equal area")
	}
}

func TestIsActiveWithAndWithoutMask(t *testing.T) {
	g, err := Build([]float64{0, 1, 2}, []float64{0, 1}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !g.IsActive(0, 0) || !g.IsActive(1, 0) {
		t.Fatal("a nil mask means every cell is active")
	}
	masked, err := Build([]float64{0, 1, 2}, []float64{0, 1}, [][]bool{{true}, {false}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !masked.IsActive(0, 0) || masked.IsActive(1, 0) {
		t.Fatal("mask should gate IsActive per cell")
	}
}

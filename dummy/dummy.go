// Package dummy provides minimal, deterministic scientific components
// for the three physical categories (surface-layer, subsurface,
// open-water) exercising every kind of transfer, input, parameter,
// constant and state the coupling engine supports. They compute no
// physically meaningful quantity; they exist to drive and to test the
// engine, the same role the reference implementation's own dummy
// components play in its own test suite.
package dummy

func add(vs ...[]float64) []float64 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i, x := range v {
			out[i] += x
		}
	}
	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func mulScalar(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func addScalar(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x + s
	}
	return out
}

func mul(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

package component

import "testing"

func TestParseAggregationSynonyms(t *testing.T) {
	cases := map[string]Aggregation{
		"mean": Mean, "average": Mean,
		"sum": Sum, "cumulative": Sum,
		"min": Min, "minimum": Min,
		"max": Max, "maximum": Max,
		"point": Point, "instantaneous": Point,
	}
	for name, want := range cases {
		got, err := ParseAggregation(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", name, got, want)
		}
	}
}

func TestParseAggregationRejectsUnknown(t *testing.T) {
	if _, err := ParseAggregation("median"); err == nil {
		t.Fatal("expected an error for an unsupported aggregation method")
	}
}

func TestAggregationString(t *testing.T) {
	if Mean.String() != "mean" || Sum.String() != "sum" || Point.String() != "point" {
		t.Fatal("String() should round-trip the canonical names")
	}
}

package calendar

import (
	"testing"
	"time"
)

func TestNoLeapSkipsFeb29(t *testing.T) {
	cal, err := New(NoLeap)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	got := cal.AddDuration(start, 24*time.Hour)
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDay360EveryMonthIsThirtyDays(t *testing.T) {
	cal, err := New(Day360)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	got := cal.AddDuration(start, 24*time.Hour)
	want := time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGregorianHandlesLeapYear(t *testing.T) {
	cal, err := New(Gregorian)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	got := cal.AddDuration(start, 24*time.Hour)
	want := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDayOfYearUnderNoLeap(t *testing.T) {
	cal, _ := New(NoLeap)
	d := cal.DayOfYear(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	if d != 60 {
		t.Fatalf("got %d, want 60", d)
	}
}

func TestMonthAndSeasonBuckets(t *testing.T) {
	cal, _ := New(Gregorian)
	if b := cal.MonthBucket(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)); b != 11 {
		t.Fatalf("month bucket got %d, want 11", b)
	}
	if s := cal.SeasonBucket(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)); s != 0 {
		t.Fatalf("season bucket got %d, want 0 (DJF)", s)
	}
	if s := cal.SeasonBucket(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)); s != 2 {
		t.Fatalf("season bucket got %d, want 2 (JJA)", s)
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(Kind("julian")); err == nil {
		t.Fatal("expected an error for an unknown calendar kind")
	}
}

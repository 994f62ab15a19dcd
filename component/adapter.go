package component

import (
	"fmt"
	"math"
	"time"

	"github.com/maseology/cm4go/calendar"
	"github.com/maseology/cm4go/dataset"
	"github.com/maseology/cm4go/modelerr"
	"github.com/maseology/cm4go/space"
	"github.com/maseology/cm4go/timedomain"
)

// RunContext is the staged view of everything a component hook may
// touch: this tick's inwards (already time/space-resampled by the
// Exchanger), staged inputs, parameters, constants, states, and the
// slots the hook fills in (outwards, outputs).
type RunContext struct {
	Now               time.Time
	Grid              *space.Grid
	Inwards           map[string][]float64
	Inputs            map[string][]float64
	Parameters        map[string]float64
	Constants         map[string]float64
	States            map[string]*State
	InitialisedStates bool // true on resume: initialise must not clobber restored states

	Outwards map[string][]float64
	Outputs  map[string][]float64
}

// InitialiseFunc sets up initial state values.
type InitialiseFunc func(ctx *RunContext) error

// RunFunc advances the component by one of its own timesteps, reading
// inwards/inputs/states/parameters/constants and filling Outwards and
// Outputs.
type RunFunc func(ctx *RunContext) error

// FinaliseFunc releases any component-held resources.
type FinaliseFunc func(ctx *RunContext) error

// Component is a user-supplied scientific integrator: a Descriptor plus
// the three lifecycle hooks, its own Grid, and its own TimeDomain.
type Component struct {
	Descriptor Descriptor
	Grid       *space.Grid
	TimeDomain *timedomain.TimeDomain

	Initialise InitialiseFunc
	Run        RunFunc
	Finalise   FinaliseFunc
}

// Adapter is the uniform facade the Driver and Exchanger interact
// with: it stages inputs, holds resolved parameters/constants/states,
// and validates a component's outputs after every Run call.
type Adapter struct {
	Name       string // == string(Descriptor.Category); one component per category
	Component  *Component
	Parameters map[string]float64
	Constants  map[string]float64
	Sources    dataset.Source
	Shelf      interface{} // opaque per-component auxiliary storage for checkpointing

	states map[string]*State
}

// Build resolves an Adapter from a Component and its parameter/constant
// values, allocating state ring buffers to the declared shapes.
func Build(c *Component, parameters, constants map[string]float64, sources dataset.Source) (*Adapter, error) {
	if c.Grid == nil {
		return nil, modelerr.NewConfigError("component.Build", "%s: missing grid", c.Descriptor.Category)
	}
	if c.TimeDomain == nil {
		return nil, modelerr.NewConfigError("component.Build", "%s: missing time domain", c.Descriptor.Category)
	}
	merged := make(map[string]float64, len(constants))
	for _, cs := range c.Descriptor.Constants {
		merged[cs.Name] = cs.Default
	}
	for k, v := range constants {
		merged[k] = v
	}
	ny, nx := c.Grid.Shape()
	cells := ny * nx
	states := make(map[string]*State, len(c.Descriptor.States))
	for _, ss := range c.Descriptor.States {
		divisions := 1
		for _, dd := range ss.Divisions {
			n := dd.Resolve(merged)
			if n < 1 {
				n = 1
			}
			divisions *= n
		}
		states[ss.Name] = NewState(ss.Name, divisions, c.Descriptor.SolverHistory, cells)
	}
	return &Adapter{
		Name:       string(c.Descriptor.Category),
		Component:  c,
		Parameters: parameters,
		Constants:  merged,
		Sources:    sources,
		states:     states,
	}, nil
}

// States exposes the adapter's live state ring buffers, keyed by name —
// used by the Exchanger's spin-up seeding and by Checkpoint.
func (a *Adapter) States() map[string]*State { return a.states }

// InitialiseComponent calls the initialise hook. initialisedStates is
// true on resume, signalling the hook must not overwrite states that
// were just restored from a dump.
func (a *Adapter) InitialiseComponent(initialisedStates bool) (err error) {
	ctx := &RunContext{
		Grid:              a.Component.Grid,
		Parameters:        a.Parameters,
		Constants:         a.Constants,
		States:            a.states,
		InitialisedStates: initialisedStates,
	}
	defer a.recoverHook(modelerr.PhaseInitialise, time.Time{}, &err)
	if a.Component.Initialise == nil {
		return nil
	}
	if e := a.Component.Initialise(ctx); e != nil {
		return &modelerr.ComponentError{Phase: modelerr.PhaseInitialise, Component: a.Name, Cause: e}
	}
	return nil
}

// Step stages inputs for now, slides every state's ring buffer forward
// (so last tick's offset 0 is this tick's offset -1), calls the run
// hook, and validates its outwards/outputs. After Step returns, offset 0
// holds the value this tick computed.
func (a *Adapter) Step(now time.Time, inwards map[string][]float64) (outwards, outputs map[string][]float64, err error) {
	inputs, ierr := a.stageInputs(now)
	if ierr != nil {
		return nil, nil, ierr
	}
	for _, s := range a.states {
		s.Slide()
	}
	ctx := &RunContext{
		Now:        now,
		Grid:       a.Component.Grid,
		Inwards:    inwards,
		Inputs:     inputs,
		Parameters: a.Parameters,
		Constants:  a.Constants,
		States:     a.states,
		Outwards:   make(map[string][]float64, len(a.Component.Descriptor.Outwards)),
		Outputs:    make(map[string][]float64, len(a.Component.Descriptor.Outputs)),
	}
	defer a.recoverHook(modelerr.PhaseRun, now, &err)
	if e := a.Component.Run(ctx); e != nil {
		return nil, nil, &modelerr.ComponentError{Phase: modelerr.PhaseRun, DateTime: now, Component: a.Name, Cause: e}
	}
	if verr := a.validate(ctx, now); verr != nil {
		return nil, nil, verr
	}
	return ctx.Outwards, ctx.Outputs, nil
}

// FinaliseComponent calls the finalise hook.
func (a *Adapter) FinaliseComponent() (err error) {
	ctx := &RunContext{
		Grid:       a.Component.Grid,
		Parameters: a.Parameters,
		Constants:  a.Constants,
		States:     a.states,
	}
	defer a.recoverHook(modelerr.PhaseFinalise, time.Time{}, &err)
	if a.Component.Finalise == nil {
		return nil
	}
	if e := a.Component.Finalise(ctx); e != nil {
		return &modelerr.ComponentError{Phase: modelerr.PhaseFinalise, Component: a.Name, Cause: e}
	}
	return nil
}

func (a *Adapter) recoverHook(phase modelerr.ComponentPhase, now time.Time, err *error) {
	if r := recover(); r != nil {
		*err = &modelerr.ComponentError{Phase: phase, DateTime: now, Component: a.Name, Cause: fmt.Errorf("panic: %v", r)}
	}
}

func (a *Adapter) stageInputs(now time.Time) (map[string][]float64, error) {
	out := make(map[string][]float64, len(a.Component.Descriptor.Inputs))
	for _, spec := range a.Component.Descriptor.Inputs {
		field, err := a.Sources.Select(spec.Name)
		if err != nil {
			return nil, modelerr.NewIOError("component.stageInputs", err)
		}
		switch spec.Kind {
		case dataset.KindDynamic:
			v, err := field.AtTime(now)
			if err != nil {
				return nil, modelerr.NewIOError("component.stageInputs", err)
			}
			out[spec.Name] = v
		case dataset.KindStatic:
			v, err := field.AtTime(now) // static fields carry one entry, Times nil
			if err != nil {
				return nil, modelerr.NewIOError("component.stageInputs", err)
			}
			out[spec.Name] = v
		case dataset.KindClimatologic:
			bucket := climatologicBucket(a.Component.TimeDomain.Calendar, spec.Frequency, now)
			v, err := field.AtBucket(bucket)
			if err != nil {
				return nil, modelerr.NewIOError("component.stageInputs", err)
			}
			out[spec.Name] = v
		}
	}
	return out, nil
}

func climatologicBucket(cal calendar.Calendar, freq dataset.ClimatologyFrequency, now time.Time) int {
	switch freq {
	case dataset.FrequencySeasonal:
		return cal.SeasonBucket(now)
	case dataset.FrequencyDayOfYear:
		return cal.DayOfYear(now) - 1
	default: // monthly
		return cal.MonthBucket(now)
	}
}

func (a *Adapter) validate(ctx *RunContext, now time.Time) error {
	ny, nx := a.Component.Grid.Shape()
	cells := ny * nx
	check := func(kind string, name string, v []float64) error {
		if v == nil {
			return &modelerr.ComponentError{Phase: modelerr.PhaseRun, DateTime: now, Component: a.Name,
				Cause: fmt.Errorf("%s %q not produced", kind, name)}
		}
		if len(v) != cells {
			return &modelerr.ShapeError{Where: fmt.Sprintf("%s.%s", a.Name, name), Expected: [2]int{ny, nx}, Got: [2]int{len(v), 1}}
		}
		for i, x := range v {
			if math.IsNaN(x) && a.Component.Grid.IsActive(i/nx, i%nx) {
				return &modelerr.ComponentError{Phase: modelerr.PhaseRun, DateTime: now, Component: a.Name,
					Cause: fmt.Errorf("%s %q produced NaN at active cell %d", kind, name, i)}
			}
		}
		return nil
	}
	for _, spec := range a.Component.Descriptor.Outwards {
		if err := check("outward", spec.Name, ctx.Outwards[spec.Name]); err != nil {
			return err
		}
	}
	for _, spec := range a.Component.Descriptor.Outputs {
		if err := check("output", spec.Name, ctx.Outputs[spec.Name]); err != nil {
			return err
		}
	}
	return nil
}

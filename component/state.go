package component

// State is a sliding-window history of K+1 timesteps for one declared
// state variable, held as a small fixed-capacity ring buffer per spec.md
// §9's design note ("no dynamic growth"). At any moment during a run,
// offsets -K..0 refer to past..present; SetTimestep(0, ...) sets the
// value being computed this tick, and Slide() is called by the adapter
// at the start of each tick so that its offset -1 is the previous
// tick's offset 0.
type State struct {
	Name      string
	Divisions int
	K         int

	buf    [][][]float64 // buf[physical][division] = flattened grid values
	cursor int           // physical index representing offset 0
}

// NewState allocates a ring of K+1 slots, each holding Divisions
// flattened grids of the given cell count, zero-initialised.
func NewState(name string, divisions, k, cells int) *State {
	if divisions < 1 {
		divisions = 1
	}
	size := k + 1
	buf := make([][][]float64, size)
	for i := range buf {
		buf[i] = make([][]float64, divisions)
		for d := range buf[i] {
			buf[i][d] = make([]float64, cells)
		}
	}
	return &State{Name: name, Divisions: divisions, K: k, buf: buf, cursor: 0}
}

func (s *State) index(offset int) int {
	n := len(s.buf)
	i := (s.cursor+offset)%n
	if i < 0 {
		i += n
	}
	return i
}

// GetTimestep returns the division-major flattened values at the given
// relative offset (0 = present, -1 = previous, ... down to -K).
func (s *State) GetTimestep(offset int) [][]float64 { return s.buf[s.index(offset)] }

// SetTimestep overwrites the division-major flattened values at the
// given relative offset (normally 0: the value being computed this
// tick, or the initial value during a cold-start initialise, which the
// first tick's Slide moves to offset -1).
func (s *State) SetTimestep(offset int, v [][]float64) { s.buf[s.index(offset)] = v }

// Slide advances the ring by one tick: what was offset 0 becomes
// offset -1, freeing a new (garbage) offset 0 slot for the next Run to
// fill via SetTimestep(0, ...).
func (s *State) Slide() { s.cursor = (s.cursor + 1) % len(s.buf) }

// StateSnapshot is the gob-serialisable content of a State, used by the
// Checkpoint subsystem to dump and resume a component's history.
type StateSnapshot struct {
	Divisions int
	K         int
	Buf       [][][]float64
	Cursor    int
}

// Snapshot returns a deep copy of the ring buffer's current content.
func (s *State) Snapshot() StateSnapshot {
	buf := make([][][]float64, len(s.buf))
	for i, slot := range s.buf {
		buf[i] = make([][]float64, len(slot))
		for d, v := range slot {
			buf[i][d] = append([]float64(nil), v...)
		}
	}
	return StateSnapshot{Divisions: s.Divisions, K: s.K, Buf: buf, Cursor: s.cursor}
}

// Restore replaces the ring buffer's content with a previously captured
// StateSnapshot. The snapshot must have been taken from a State built
// with the same Divisions, K, and cell count.
func (s *State) Restore(snap StateSnapshot) {
	s.buf = make([][][]float64, len(snap.Buf))
	for i, slot := range snap.Buf {
		s.buf[i] = make([][]float64, len(slot))
		for d, v := range slot {
			s.buf[i][d] = append([]float64(nil), v...)
		}
	}
	s.cursor = snap.Cursor
}

package gpio

import (
	"errors"

	"github.com/sweeney/alarm-station/internal/logic"
)

// FakeBoard is a test double that replays scripted frames and records outputs.
type FakeBoard struct {
	// Frames contains the scripted input for each tick. ReadTestButton()
	// advances to the next frame; ScanKeypad() reads the current one.
	// If frames are exhausted, the last frame repeats.
	Frames []Frame

	// index tracks the current position in Frames (-1 before the first read)
	index int

	// Applied records every actuator state passed to Apply.
	Applied []logic.Actuators

	// Current is the last applied actuator state.
	Current logic.Actuators

	// Scans counts ScanKeypad calls.
	Scans int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, ScanError and ApplyError, if set, are returned by the matching method.
	ReadError  error
	ScanError  error
	ApplyError error
}

// Frame is the scripted state of the board inputs for one tick.
type Frame struct {
	Test bool
	// Held lists the keys physically held down.
	Held []logic.Key
}

// NewFakeBoard creates a FakeBoard with the given frames.
func NewFakeBoard(frames []Frame) *FakeBoard {
	return &FakeBoard{Frames: frames, index: -1}
}

func (f *FakeBoard) frame() Frame {
	if f.index < 0 || len(f.Frames) == 0 {
		return Frame{}
	}
	return f.Frames[f.index]
}

// ReadTestButton advances to the next frame and returns its button state.
func (f *FakeBoard) ReadTestButton() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Frames) == 0 {
		return false, errors.New("no frames configured")
	}
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	return f.frame().Test, nil
}

// ScanKeypad scans the current frame's held keys through the matrix logic.
func (f *FakeBoard) ScanKeypad() (logic.Key, error) {
	f.Scans++
	if f.ScanError != nil {
		return logic.NoKey, f.ScanError
	}
	return scanMatrix(newFakeMatrix(f.frame().Held...))
}

// Apply records the requested actuator state.
func (f *FakeBoard) Apply(out logic.Actuators) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Applied = append(f.Applied, out)
	f.Current = out
	return nil
}

// Close releases every output and marks the board as closed.
func (f *FakeBoard) Close() error {
	f.Current = logic.Actuators{}
	f.Closed = true
	return nil
}

// Reset rewinds to the first frame and clears recorded state.
func (f *FakeBoard) Reset() {
	f.index = -1
	f.Applied = nil
	f.Current = logic.Actuators{}
	f.Scans = 0
	f.Closed = false
}

// fakeMatrix simulates the electrical keypad: a held key connects its row to
// its column, pulling the column low while that row is selected.
type fakeMatrix struct {
	held     map[[2]int]bool
	selected int
	// selects records the row selection order for tests
	selects []int
}

func newFakeMatrix(keys ...logic.Key) *fakeMatrix {
	m := &fakeMatrix{held: map[[2]int]bool{}, selected: -1}
	for _, k := range keys {
		for r := 0; r < KeypadRows; r++ {
			for c := 0; c < KeypadCols; c++ {
				if KeyMap[r][c] == k {
					m.held[[2]int{r, c}] = true
				}
			}
		}
	}
	return m
}

func (m *fakeMatrix) selectRow(row int) error {
	m.selected = row
	m.selects = append(m.selects, row)
	return nil
}

func (m *fakeMatrix) readCols(vals []int) error {
	for c := range vals {
		vals[c] = 1
		if m.held[[2]int{m.selected, c}] {
			vals[c] = 0
		}
	}
	return nil
}

package logic

import "time"

// KeypadState is one of Scanning, Debouncing or HoldPressed.
type KeypadState interface {
	keypadState()
}

// Scanning waits for any key to appear on the matrix.
type Scanning struct{}

// Debouncing waits for Key to stay down for the debounce window.
type Debouncing struct {
	Key     Key
	Elapsed time.Duration
}

// HoldPressed waits for Key to be released.
type HoldPressed struct {
	Key Key
}

func (Scanning) keypadState()    {}
func (Debouncing) keypadState()  {}
func (HoldPressed) keypadState() {}

// StepKeypad is the keypad transition function. It returns the next state and
// the key released on this tick, or NoKey. scan is only called when the state
// needs a fresh look at the matrix.
func StepKeypad(s KeypadState, scan func() Key, tick, window time.Duration) (KeypadState, Key) {
	switch st := s.(type) {
	case Debouncing:
		if st.Elapsed >= window {
			if scan() == st.Key {
				return HoldPressed{Key: st.Key}, NoKey
			}
			// Bounce: drop silently
			return Scanning{}, NoKey
		}
		st.Elapsed += tick
		return st, NoKey

	case HoldPressed:
		k := scan()
		if k == st.Key {
			return st, NoKey
		}
		if k == NoKey {
			return Scanning{}, st.Key
		}
		// Another key took over without a clean release; start over.
		return Scanning{}, NoKey

	default: // Scanning
		k := scan()
		if k == NoKey {
			return Scanning{}, NoKey
		}
		return Debouncing{Key: k}, NoKey
	}
}

// Keypad tracks the debounce FSM across ticks.
type Keypad struct {
	state  KeypadState
	tick   time.Duration
	window time.Duration
}

// NewKeypad creates a keypad FSM in the Scanning state.
func NewKeypad(tick, window time.Duration) *Keypad {
	return &Keypad{
		state:  Scanning{},
		tick:   tick,
		window: window,
	}
}

// Update advances one tick and returns the released key, if any.
func (k *Keypad) Update(scan func() Key) Key {
	next, released := StepKeypad(k.state, scan, k.tick, k.window)
	k.state = next
	return released
}

// State returns the current FSM state.
func (k *Keypad) State() KeypadState {
	return k.state
}

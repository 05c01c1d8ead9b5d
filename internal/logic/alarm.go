package logic

import "time"

// Alarm is the activation/deactivation state machine.
type Alarm struct {
	tick time.Duration

	state        AlarmState
	blinkElapsed time.Duration
	ledOn        bool
	// detectors are the flags the alarm acted on this tick, test override
	// included. Cleared while idle.
	detectors Flags

	code     Code
	entry    Code
	cursor   int
	attempts int

	incorrectLed bool
}

// NewAlarm creates an idle alarm expecting the given code.
func NewAlarm(tick time.Duration, code Code) *Alarm {
	return &Alarm{
		tick:  tick,
		state: AlarmIdle,
		code:  code,
	}
}

// Update runs the activation policy for one tick. test forces both detectors
// on. It returns true if the alarm went from idle to active on this tick.
func (a *Alarm) Update(flags Flags, test bool) bool {
	if test {
		flags = Flags{Gas: true, OverTemp: true}
	}
	a.detectors = flags

	activated := false
	if a.state == AlarmIdle && flags.Any() {
		a.state = AlarmActive
		activated = true
	}

	if a.state != AlarmActive {
		a.idle()
		return false
	}

	a.blinkElapsed += a.tick
	if period := BlinkPeriod(flags); period > 0 && a.blinkElapsed >= period {
		a.blinkElapsed = 0
		a.ledOn = !a.ledOn
	}
	return activated
}

// BlinkPeriod selects the LED toggle period. Precedence: both > gas > over-temp.
// Returns 0 when no detector is tripped (LED holds its state).
func BlinkPeriod(f Flags) time.Duration {
	switch {
	case f.Gas && f.OverTemp:
		return BlinkGasAndOverTemp
	case f.Gas:
		return BlinkGas
	case f.OverTemp:
		return BlinkOverTemp
	}
	return 0
}

func (a *Alarm) idle() {
	a.ledOn = false
	a.blinkElapsed = 0
	a.detectors = Flags{}
}

// deactivate returns to idle. Detector flags are left as observed so the event
// log does not see a false edge on the deactivation tick.
func (a *Alarm) deactivate() {
	a.state = AlarmIdle
	a.ledOn = false
	a.blinkElapsed = 0
}

// EnterKey feeds one released key into the code entry buffer.
// '#' is never stored. Once locked out every key is ignored.
func (a *Alarm) EnterKey(k Key) CodeResult {
	if a.LockedOut() {
		return CodeBlocked
	}
	if k == NoKey || k == KeyHash {
		return CodeNone
	}

	a.entry[a.cursor] = k
	if a.cursor < CodeLength-1 {
		a.cursor++
		return CodeNone
	}

	a.cursor = 0
	return a.compare(a.entry)
}

// SubmitCode compares a complete code, as entered on the console, through the
// same comparison and lockout policy as the keypad. The keypad cursor is kept.
func (a *Alarm) SubmitCode(c Code) CodeResult {
	if a.LockedOut() {
		return CodeBlocked
	}
	return a.compare(c)
}

func (a *Alarm) compare(c Code) CodeResult {
	if c == a.code {
		a.deactivate()
		a.attempts = 0
		a.incorrectLed = false
		return CodeAccepted
	}
	a.attempts++
	a.incorrectLed = true
	return CodeRejected
}

// SetCode replaces the deactivation code. It is the only way out of lockout:
// attempts, entry cursor and both indicators are reset.
func (a *Alarm) SetCode(c Code) {
	a.code = c
	a.attempts = 0
	a.cursor = 0
	a.entry = Code{}
	a.incorrectLed = false
}

// Code returns the current deactivation code.
func (a *Alarm) Code() Code {
	return a.code
}

// State returns the alarm state.
func (a *Alarm) State() AlarmState {
	return a.state
}

// Active reports whether the alarm is active.
func (a *Alarm) Active() bool {
	return a.state == AlarmActive
}

// Detectors returns the flags the alarm acted on in the last Update.
func (a *Alarm) Detectors() Flags {
	return a.detectors
}

// Attempts returns the number of consecutive incorrect codes.
func (a *Alarm) Attempts() int {
	return a.attempts
}

// LockedOut reports whether the keypad is locked.
func (a *Alarm) LockedOut() bool {
	return a.attempts >= MaxIncorrectAttempts
}

// Cursor returns the position of the next key in the entry buffer.
func (a *Alarm) Cursor() int {
	return a.cursor
}

// Actuators returns the output state implied by the alarm.
func (a *Alarm) Actuators() Actuators {
	return Actuators{
		Siren:            a.state == AlarmActive,
		AlarmLed:         a.state == AlarmActive && a.ledOn,
		IncorrectCodeLed: a.incorrectLed,
		LockoutLed:       a.LockedOut(),
	}
}

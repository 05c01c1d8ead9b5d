// Package logic contains the pure control logic of the alarm station.
// This package has NO external I/O (no GPIO, Modbus, serial, MQTT or time.Sleep).
// Time is always injectable: the tick increment is a parameter and timestamps
// arrive with each Input.
package logic

import (
	"fmt"
	"time"
)

// Fixed station constants.
const (
	// TickIncrement is the duration of one control loop iteration.
	TickIncrement = 10 * time.Millisecond

	// SampleCount is the moving-average window for each sensor.
	SampleCount = 100

	// GasThreshold is the normalized MQ-2 average above which gas is detected.
	GasThreshold = 0.4

	// OverTempLevel is the Celsius level the LM35 average must strictly exceed.
	OverTempLevel = 25.0

	// DebounceWindow is how long a key must stay down before it is accepted.
	DebounceWindow = 40 * time.Millisecond

	// CodeLength is the number of keys in a deactivation code.
	CodeLength = 4

	// MaxIncorrectAttempts locks the keypad once reached.
	MaxIncorrectAttempts = 5

	// LogCapacity is the number of records the event log retains.
	LogCapacity = 5

	// LabelMaxLength bounds an event record label.
	LabelMaxLength = 13
)

// LED blink periods while the alarm is active.
const (
	BlinkGasAndOverTemp = 100 * time.Millisecond
	BlinkGas            = 1000 * time.Millisecond
	BlinkOverTemp       = 500 * time.Millisecond
)

// Monitored element names used for event labels.
const (
	ElementAlarm    = "ALARM"
	ElementGas      = "GAS_DET"
	ElementOverTemp = "OVER_TEMP"
)

// AlarmState is the state of the alarm state machine.
type AlarmState string

const (
	AlarmIdle   AlarmState = "IDLE"
	AlarmActive AlarmState = "ACTIVE"
)

// Key is a keypad symbol. NoKey means nothing pressed or released.
type Key byte

const (
	NoKey   Key = 0
	KeyHash Key = '#'
)

// String renders the key for logs; NoKey renders as "none".
func (k Key) String() string {
	if k == NoKey {
		return "none"
	}
	return string(rune(k))
}

// IsKeypadSymbol reports whether k is one of the 16 symbols on the 4x4 keypad.
func IsKeypadSymbol(k Key) bool {
	switch {
	case k >= '0' && k <= '9':
		return true
	case k >= 'A' && k <= 'D':
		return true
	case k == '*' || k == '#':
		return true
	}
	return false
}

// Code is a deactivation code.
type Code [CodeLength]Key

// DefaultCode is the factory deactivation code.
var DefaultCode = Code{'1', '8', '0', '5'}

// String renders the code as plain text.
func (c Code) String() string {
	b := make([]byte, 0, CodeLength)
	for _, k := range c {
		b = append(b, byte(k))
	}
	return string(b)
}

// ParseCode converts a 4-symbol string into a Code.
// '#' is rejected because the keypad reserves it for showing the event log.
func ParseCode(s string) (Code, error) {
	var c Code
	if len(s) != CodeLength {
		return c, fmt.Errorf("code must be %d keys, got %d", CodeLength, len(s))
	}
	for i := 0; i < CodeLength; i++ {
		k := Key(s[i])
		if !IsKeypadSymbol(k) || k == KeyHash {
			return c, fmt.Errorf("code key %q is not a valid keypad symbol", s[i])
		}
		c[i] = k
	}
	return c, nil
}

// Flags are the detector flags derived from the sensor averages.
type Flags struct {
	Gas      bool
	OverTemp bool
}

// Any reports whether at least one detector is tripped.
func (f Flags) Any() bool {
	return f.Gas || f.OverTemp
}

// Reading is the result of one sampling step.
type Reading struct {
	TempC      float64
	GasAverage float64
	Flags      Flags
}

// Actuators is the desired state of every output line.
type Actuators struct {
	Siren            bool // true = asserted (driven low)
	AlarmLed         bool
	IncorrectCodeLed bool
	LockoutLed       bool
}

// CodeResult reports what a key release or code submission did.
type CodeResult int

const (
	// CodeNone means nothing was compared (no key, or key stored mid-entry).
	CodeNone CodeResult = iota
	// CodeAccepted means the entry matched and the alarm is now idle.
	CodeAccepted
	// CodeRejected means the entry did not match.
	CodeRejected
	// CodeBlocked means input was ignored because of lockout.
	CodeBlocked
)

func (r CodeResult) String() string {
	switch r {
	case CodeAccepted:
		return "ACCEPTED"
	case CodeRejected:
		return "REJECTED"
	case CodeBlocked:
		return "BLOCKED"
	}
	return "NONE"
}

// Record is one entry of the event log.
type Record struct {
	Seconds int64
	Label   string
}

// Time returns the record timestamp in the local zone.
func (r Record) Time() time.Time {
	return time.Unix(r.Seconds, 0)
}

// Input is everything the controller consumes in one tick.
type Input struct {
	TempRaw float64 // LM35 reading, normalized 0..1
	GasRaw  float64 // MQ-2 reading, normalized 0..1
	Test    bool    // alarm test button
	// Scan returns the key currently held on the matrix, or NoKey.
	// It is only called when the keypad FSM needs a scan; nil means no keypad.
	Scan func() Key
	Time time.Time
}

// Output is everything the controller produced in one tick.
type Output struct {
	Time      time.Time
	Reading   Reading
	Actuators Actuators
	// Released is the key released this tick (NoKey if none).
	Released Key
	// Code is the outcome of Released on the deactivation path.
	Code CodeResult
	// Records holds the event log entries appended this tick.
	Records []Record
	// ShowLog is set when '#' was released.
	ShowLog bool
	// TestActivated is set when the test button activated the alarm this tick.
	TestActivated bool
}

// EventCounts tracks logged ON transitions and rejected codes since startup.
type EventCounts struct {
	AlarmOn        int
	GasOn          int
	OverTempOn     int
	IncorrectCodes int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// View is a copy of the controller state for status consumers.
type View struct {
	Alarm      AlarmState
	Gas        bool
	OverTemp   bool
	TempC      float64
	GasAverage float64
	Attempts   int
	LockedOut  bool
	Actuators  Actuators
	Counts     EventCounts
	LogSize    int
	// Events is a copy of the event log, oldest first.
	Events []Record
}

// Package gpio provides the station's digital I/O with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/alarm-station/internal/logic"

// Board drives the siren and LEDs and reads the test button and keypad.
type Board interface {
	// ReadTestButton returns true while the alarm test button is pressed.
	ReadTestButton() (bool, error)

	// ScanKeypad returns the first pressed key in row-major order, or logic.NoKey.
	ScanKeypad() (logic.Key, error)

	// Apply drives the outputs to match out. Only changed lines are written.
	Apply(out logic.Actuators) error

	// Close releases the siren, turns LEDs off and releases GPIO resources.
	Close() error
}

// Keypad geometry.
const (
	KeypadRows = 4
	KeypadCols = 4
)

// KeyMap is the symbol at each row/column of the 4x4 membrane keypad.
var KeyMap = [KeypadRows][KeypadCols]logic.Key{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// Pin definitions (BCM numbering)
const (
	DefaultChip            = "gpiochip0"
	DefaultPinSiren        = 17
	DefaultPinAlarmLed     = 27
	DefaultPinIncorrectLed = 22
	DefaultPinLockoutLed   = 23
	DefaultPinTestButton   = 24
)

// DefaultRowPins and DefaultColPins are the keypad lines, top row / left column first.
var (
	DefaultRowPins = [KeypadRows]int{5, 6, 13, 19}
	DefaultColPins = [KeypadCols]int{12, 16, 20, 21}
)

// Pins is the GPIO line assignment for a board.
type Pins struct {
	Chip             string
	Siren            int
	AlarmLed         int
	IncorrectCodeLed int
	LockoutLed       int
	TestButton       int
	Rows             [KeypadRows]int
	Cols             [KeypadCols]int
}

// DefaultPins returns the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:             DefaultChip,
		Siren:            DefaultPinSiren,
		AlarmLed:         DefaultPinAlarmLed,
		IncorrectCodeLed: DefaultPinIncorrectLed,
		LockoutLed:       DefaultPinLockoutLed,
		TestButton:       DefaultPinTestButton,
		Rows:             DefaultRowPins,
		Cols:             DefaultColPins,
	}
}

// matrix is the electrical view of the keypad: rows are driven, columns sensed.
// Columns are pulled up, so a pressed key reads 0 on its column while its row is low.
type matrix interface {
	// selectRow drives row low and every other row high.
	selectRow(row int) error
	// readCols fills vals with the column levels.
	readCols(vals []int) error
}

// scanMatrix walks the rows top to bottom and returns the first pressed key.
func scanMatrix(m matrix) (logic.Key, error) {
	cols := make([]int, KeypadCols)
	for row := 0; row < KeypadRows; row++ {
		if err := m.selectRow(row); err != nil {
			return logic.NoKey, err
		}
		if err := m.readCols(cols); err != nil {
			return logic.NoKey, err
		}
		for col, v := range cols {
			if v == 0 {
				return KeyMap[row][col], nil
			}
		}
	}
	return logic.NoKey, nil
}

// rowLevels returns the drive levels that select row.
func rowLevels(row int) []int {
	vals := make([]int, KeypadRows)
	for i := range vals {
		vals[i] = 1
	}
	vals[row] = 0
	return vals
}

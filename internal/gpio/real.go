//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/alarm-station/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// RealBoard drives actual hardware using the Linux GPIO character device.
type RealBoard struct {
	chip         *gpiocdev.Chip
	siren        *gpiocdev.Line
	alarmLed     *gpiocdev.Line
	incorrectLed *gpiocdev.Line
	lockoutLed   *gpiocdev.Line
	testButton   *gpiocdev.Line
	rows         *gpiocdev.Lines
	cols         *gpiocdev.Lines

	applied logic.Actuators
}

// NewRealBoard requests every station line on the configured chip.
func NewRealBoard(pins Pins) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b := &RealBoard{chip: chip}

	// The siren is open-drain: it starts released (input, high impedance)
	// and is asserted by switching to an output driven low.
	if b.siren, err = chip.RequestLine(pins.Siren, gpiocdev.AsInput); err != nil {
		b.Close()
		return nil, fmt.Errorf("request siren pin %d: %w", pins.Siren, err)
	}
	if b.alarmLed, err = chip.RequestLine(pins.AlarmLed, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request alarm LED pin %d: %w", pins.AlarmLed, err)
	}
	if b.incorrectLed, err = chip.RequestLine(pins.IncorrectCodeLed, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request incorrect-code LED pin %d: %w", pins.IncorrectCodeLed, err)
	}
	if b.lockoutLed, err = chip.RequestLine(pins.LockoutLed, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request lockout LED pin %d: %w", pins.LockoutLed, err)
	}
	if b.testButton, err = chip.RequestLine(pins.TestButton, gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		b.Close()
		return nil, fmt.Errorf("request test button pin %d: %w", pins.TestButton, err)
	}

	// Rows idle high; columns pulled up so a closed contact reads low.
	if b.rows, err = chip.RequestLines(pins.Rows[:], gpiocdev.AsOutput(1, 1, 1, 1)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request keypad rows %v: %w", pins.Rows, err)
	}
	if b.cols, err = chip.RequestLines(pins.Cols[:], gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		b.Close()
		return nil, fmt.Errorf("request keypad cols %v: %w", pins.Cols, err)
	}

	return b, nil
}

// ReadTestButton returns true while the test button is held.
func (b *RealBoard) ReadTestButton() (bool, error) {
	v, err := b.testButton.Value()
	if err != nil {
		return false, fmt.Errorf("read test button: %w", err)
	}
	return v == 1, nil
}

// ScanKeypad scans the matrix row by row.
func (b *RealBoard) ScanKeypad() (logic.Key, error) {
	k, err := scanMatrix(realMatrix{rows: b.rows, cols: b.cols})
	if err != nil {
		return logic.NoKey, fmt.Errorf("scan keypad: %w", err)
	}
	return k, nil
}

type realMatrix struct {
	rows *gpiocdev.Lines
	cols *gpiocdev.Lines
}

func (m realMatrix) selectRow(row int) error {
	return m.rows.SetValues(rowLevels(row))
}

func (m realMatrix) readCols(vals []int) error {
	return m.cols.Values(vals)
}

// Apply writes every output whose state differs from the last applied state.
func (b *RealBoard) Apply(out logic.Actuators) error {
	if out.Siren != b.applied.Siren {
		if err := b.setSiren(out.Siren); err != nil {
			return err
		}
		b.applied.Siren = out.Siren
	}
	if out.AlarmLed != b.applied.AlarmLed {
		if err := b.alarmLed.SetValue(level(out.AlarmLed)); err != nil {
			return fmt.Errorf("set alarm LED: %w", err)
		}
		b.applied.AlarmLed = out.AlarmLed
	}
	if out.IncorrectCodeLed != b.applied.IncorrectCodeLed {
		if err := b.incorrectLed.SetValue(level(out.IncorrectCodeLed)); err != nil {
			return fmt.Errorf("set incorrect-code LED: %w", err)
		}
		b.applied.IncorrectCodeLed = out.IncorrectCodeLed
	}
	if out.LockoutLed != b.applied.LockoutLed {
		if err := b.lockoutLed.SetValue(level(out.LockoutLed)); err != nil {
			return fmt.Errorf("set lockout LED: %w", err)
		}
		b.applied.LockoutLed = out.LockoutLed
	}
	return nil
}

func (b *RealBoard) setSiren(asserted bool) error {
	if asserted {
		if err := b.siren.Reconfigure(gpiocdev.AsOutput(0), gpiocdev.AsOpenDrain); err != nil {
			return fmt.Errorf("assert siren: %w", err)
		}
		return nil
	}
	if err := b.siren.Reconfigure(gpiocdev.AsInput); err != nil {
		return fmt.Errorf("release siren: %w", err)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}

// Close releases the siren, turns the LEDs off and closes every line.
func (b *RealBoard) Close() error {
	var errs []error

	if b.siren != nil {
		if err := b.siren.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("release siren: %w", err))
		}
	}
	for _, l := range []*gpiocdev.Line{b.alarmLed, b.incorrectLed, b.lockoutLed} {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear LED %d: %w", l.Offset(), err))
		}
	}
	for _, l := range []*gpiocdev.Line{b.siren, b.alarmLed, b.incorrectLed, b.lockoutLed, b.testButton} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	for _, ls := range []*gpiocdev.Lines{b.rows, b.cols} {
		if ls == nil {
			continue
		}
		if err := ls.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close keypad lines: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

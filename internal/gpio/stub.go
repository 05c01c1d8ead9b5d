//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/alarm-station/internal/logic"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(pins Pins) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadTestButton is not implemented on non-Linux platforms.
func (b *RealBoard) ReadTestButton() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// ScanKeypad is not implemented on non-Linux platforms.
func (b *RealBoard) ScanKeypad() (logic.Key, error) {
	return logic.NoKey, errors.New("gpio: not supported")
}

// Apply is not implemented on non-Linux platforms.
func (b *RealBoard) Apply(out logic.Actuators) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}

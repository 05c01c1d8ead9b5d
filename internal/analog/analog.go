// Package analog reads the temperature and gas sensors through a Modbus
// analog input module. Readings are normalized to [0,1] of full scale, the
// same unit the sampling engine expects from an ADC.
package analog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Sample is one normalized reading of both sensors.
type Sample struct {
	Temp float64
	Gas  float64
}

// Reader abstracts the sensor source.
type Reader interface {
	// Read returns the current normalized sensor values.
	Read() (Sample, error)

	// Close releases the underlying transport.
	Close() error
}

// Transports supported by NewModbusReader.
const (
	TransportRTU = "rtu"
	TransportTCP = "tcp"
)

// Config describes where the sensor registers live.
type Config struct {
	Transport    string
	Address      string // serial device for rtu, host:port for tcp
	BaudRate     int
	SlaveID      uint8
	TempRegister uint16
	GasRegister  uint16
	FullScale    float64 // raw count that maps to 1.0
	Timeout      time.Duration
}

// DefaultConfig returns settings for a 12-bit RTU input module on the Pi UART.
func DefaultConfig() Config {
	return Config{
		Transport:    TransportRTU,
		Address:      "/dev/ttyUSB0",
		BaudRate:     9600,
		SlaveID:      1,
		TempRegister: 0,
		GasRegister:  1,
		FullScale:    4095,
		Timeout:      50 * time.Millisecond,
	}
}

// registerReader is the subset of modbus.Client used here.
type registerReader interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// ModbusReader reads both sensors as input registers (function code 4).
type ModbusReader struct {
	client registerReader
	closer func() error
	cfg    Config
}

// NewModbusReader connects to the analog module.
func NewModbusReader(cfg Config) (*ModbusReader, error) {
	if cfg.Address == "" {
		return nil, errors.New("analog: address required")
	}
	if cfg.FullScale <= 0 {
		return nil, fmt.Errorf("analog: full scale must be positive, got %v", cfg.FullScale)
	}

	switch cfg.Transport {
	case TransportRTU, "":
		h := modbus.NewRTUClientHandler(cfg.Address)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = cfg.SlaveID
		h.Timeout = cfg.Timeout
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("analog: open %s: %w", cfg.Address, err)
		}
		return newModbusReader(modbus.NewClient(h), h.Close, cfg), nil

	case TransportTCP:
		h := modbus.NewTCPClientHandler(cfg.Address)
		h.SlaveId = cfg.SlaveID
		h.Timeout = cfg.Timeout
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("analog: connect %s: %w", cfg.Address, err)
		}
		return newModbusReader(modbus.NewClient(h), h.Close, cfg), nil

	default:
		return nil, fmt.Errorf("analog: unknown transport %q", cfg.Transport)
	}
}

func newModbusReader(c registerReader, closer func() error, cfg Config) *ModbusReader {
	return &ModbusReader{client: c, closer: closer, cfg: cfg}
}

// Read fetches both registers. Adjacent registers are read in one request.
func (r *ModbusReader) Read() (Sample, error) {
	t, g := r.cfg.TempRegister, r.cfg.GasRegister

	var tempRaw, gasRaw uint16
	switch {
	case g == t+1:
		regs, err := r.readRegisters(t, 2)
		if err != nil {
			return Sample{}, err
		}
		tempRaw, gasRaw = regs[0], regs[1]
	case t == g+1:
		regs, err := r.readRegisters(g, 2)
		if err != nil {
			return Sample{}, err
		}
		gasRaw, tempRaw = regs[0], regs[1]
	default:
		regs, err := r.readRegisters(t, 1)
		if err != nil {
			return Sample{}, err
		}
		tempRaw = regs[0]
		if regs, err = r.readRegisters(g, 1); err != nil {
			return Sample{}, err
		}
		gasRaw = regs[0]
	}

	return Sample{
		Temp: r.normalize(tempRaw),
		Gas:  r.normalize(gasRaw),
	}, nil
}

func (r *ModbusReader) readRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := r.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, fmt.Errorf("analog: read input registers %d+%d: %w", addr, qty, err)
	}
	if len(data) < int(qty)*2 {
		return nil, fmt.Errorf("analog: short response: %d bytes for %d registers", len(data), qty)
	}
	regs := make([]uint16, qty)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return regs, nil
}

func (r *ModbusReader) normalize(raw uint16) float64 {
	return float64(raw) / r.cfg.FullScale
}

// Close closes the transport.
func (r *ModbusReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

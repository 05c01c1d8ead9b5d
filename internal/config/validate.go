package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/sweeney/alarm-station/internal/analog"
	"github.com/sweeney/alarm-station/internal/gpio"
	"github.com/sweeney/alarm-station/internal/logic"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if cfg.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", cfg.Tick)
	}

	// ------------------------------------------------------------
	// GPIO
	// ------------------------------------------------------------

	if cfg.GPIO.Chip == "" {
		return errors.New("gpio: chip required")
	}
	if len(cfg.GPIO.Rows) != gpio.KeypadRows {
		return fmt.Errorf("gpio: keypad needs %d rows, got %d", gpio.KeypadRows, len(cfg.GPIO.Rows))
	}
	if len(cfg.GPIO.Cols) != gpio.KeypadCols {
		return fmt.Errorf("gpio: keypad needs %d cols, got %d", gpio.KeypadCols, len(cfg.GPIO.Cols))
	}

	owner := map[int]string{}
	claim := func(pin int, name string) error {
		if pin < 0 {
			return fmt.Errorf("gpio: %s: negative offset %d", name, pin)
		}
		if prev, ok := owner[pin]; ok {
			return fmt.Errorf("gpio: offset %d used by both %s and %s", pin, prev, name)
		}
		owner[pin] = name
		return nil
	}
	named := []struct {
		pin  int
		name string
	}{
		{cfg.GPIO.Siren, "siren"},
		{cfg.GPIO.AlarmLed, "alarm_led"},
		{cfg.GPIO.IncorrectCodeLed, "incorrect_code_led"},
		{cfg.GPIO.LockoutLed, "lockout_led"},
		{cfg.GPIO.TestButton, "test_button"},
	}
	for _, n := range named {
		if err := claim(n.pin, n.name); err != nil {
			return err
		}
	}
	for i, pin := range cfg.GPIO.Rows {
		if err := claim(pin, fmt.Sprintf("rows[%d]", i)); err != nil {
			return err
		}
	}
	for i, pin := range cfg.GPIO.Cols {
		if err := claim(pin, fmt.Sprintf("cols[%d]", i)); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// SENSORS
	// ------------------------------------------------------------

	switch cfg.Sensors.Transport {
	case analog.TransportRTU, analog.TransportTCP:
	default:
		return fmt.Errorf("sensors: unknown transport %q", cfg.Sensors.Transport)
	}
	if cfg.Sensors.Address == "" {
		return errors.New("sensors: address required")
	}
	if cfg.Sensors.Transport == analog.TransportRTU && cfg.Sensors.BaudRate <= 0 {
		return fmt.Errorf("sensors: baud_rate must be positive, got %d", cfg.Sensors.BaudRate)
	}
	if cfg.Sensors.FullScale <= 0 {
		return fmt.Errorf("sensors: full_scale must be positive, got %v", cfg.Sensors.FullScale)
	}
	if cfg.Sensors.TempRegister == cfg.Sensors.GasRegister {
		return fmt.Errorf("sensors: temp and gas share register %d", cfg.Sensors.TempRegister)
	}

	// ------------------------------------------------------------
	// ALARM
	// ------------------------------------------------------------

	if _, err := logic.ParseCode(cfg.Alarm.Code); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	if cfg.Alarm.Window <= 0 {
		return fmt.Errorf("alarm: window must be positive, got %d", cfg.Alarm.Window)
	}
	if cfg.Alarm.Debounce < 0 {
		return fmt.Errorf("alarm: debounce must not be negative, got %v", cfg.Alarm.Debounce)
	}

	// ------------------------------------------------------------
	// CONSOLE / MQTT / HTTP
	// ------------------------------------------------------------

	if cfg.Console.Device != "" && cfg.Console.Baud <= 0 {
		return fmt.Errorf("console: baud must be positive, got %d", cfg.Console.Baud)
	}
	if cfg.MQTT.Heartbeat < 0 {
		return fmt.Errorf("mqtt: heartbeat must not be negative, got %v", cfg.MQTT.Heartbeat)
	}
	if cfg.MQTT.Broker != "" && cfg.MQTT.BufferSize <= 0 {
		return fmt.Errorf("mqtt: buffer_size must be positive, got %d", cfg.MQTT.BufferSize)
	}
	if cfg.HTTP.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.HTTP.Listen); err != nil {
			return fmt.Errorf("http: listen: %w", err)
		}
	}

	return nil
}

// Package config loads the station configuration from YAML.
package config

import (
	"time"

	"github.com/sweeney/alarm-station/internal/analog"
	"github.com/sweeney/alarm-station/internal/gpio"
	"github.com/sweeney/alarm-station/internal/logic"
)

type Config struct {
	Tick    time.Duration `yaml:"tick"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Sensors SensorsConfig `yaml:"sensors"`
	Alarm   AlarmConfig   `yaml:"alarm"`
	Console ConsoleConfig `yaml:"console"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Debug   bool          `yaml:"debug"`
}

// ---- GPIO ----

type GPIOConfig struct {
	Chip             string `yaml:"chip"`
	Siren            int    `yaml:"siren"`
	AlarmLed         int    `yaml:"alarm_led"`
	IncorrectCodeLed int    `yaml:"incorrect_code_led"`
	LockoutLed       int    `yaml:"lockout_led"`
	TestButton       int    `yaml:"test_button"`
	Rows             []int  `yaml:"rows"` // top to bottom
	Cols             []int  `yaml:"cols"` // left to right
}

// ---- SENSORS ----

type SensorsConfig struct {
	Transport    string        `yaml:"transport"` // rtu | tcp
	Address      string        `yaml:"address"`   // serial device or host:port
	BaudRate     int           `yaml:"baud_rate"`
	SlaveID      uint8         `yaml:"slave_id"`
	TempRegister uint16        `yaml:"temp_register"`
	GasRegister  uint16        `yaml:"gas_register"`
	FullScale    float64       `yaml:"full_scale"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ---- ALARM ----

type AlarmConfig struct {
	Code          string        `yaml:"code"`
	GasThreshold  float64       `yaml:"gas_threshold"`
	OverTempLevel float64       `yaml:"over_temp_level"` // Celsius
	Debounce      time.Duration `yaml:"debounce"`
	Window        int           `yaml:"window"` // samples in the moving average
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	Device string `yaml:"device"` // empty uses stdin/stdout
	Baud   int    `yaml:"baud"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker     string        `yaml:"broker"` // empty disables forwarding
	Heartbeat  time.Duration `yaml:"heartbeat"`
	BufferSize int           `yaml:"buffer_size"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the status page
}

// Default returns the reference station configuration.
func Default() Config {
	pins := gpio.DefaultPins()
	sensors := analog.DefaultConfig()
	params := logic.DefaultParams()

	return Config{
		Tick: params.Tick,
		GPIO: GPIOConfig{
			Chip:             pins.Chip,
			Siren:            pins.Siren,
			AlarmLed:         pins.AlarmLed,
			IncorrectCodeLed: pins.IncorrectCodeLed,
			LockoutLed:       pins.LockoutLed,
			TestButton:       pins.TestButton,
			Rows:             append([]int(nil), pins.Rows[:]...),
			Cols:             append([]int(nil), pins.Cols[:]...),
		},
		Sensors: SensorsConfig{
			Transport:    sensors.Transport,
			Address:      sensors.Address,
			BaudRate:     sensors.BaudRate,
			SlaveID:      sensors.SlaveID,
			TempRegister: sensors.TempRegister,
			GasRegister:  sensors.GasRegister,
			FullScale:    sensors.FullScale,
			Timeout:      sensors.Timeout,
		},
		Alarm: AlarmConfig{
			Code:          params.Code.String(),
			GasThreshold:  params.GasThreshold,
			OverTempLevel: params.OverTempLevel,
			Debounce:      params.Debounce,
			Window:        params.Window,
		},
		Console: ConsoleConfig{
			Baud: 115200,
		},
		MQTT: MQTTConfig{
			Heartbeat:  15 * time.Minute,
			BufferSize: 1000,
		},
		HTTP: HTTPConfig{
			Listen: ":8080",
		},
	}
}

// Params converts the alarm section into controller parameters.
// It MUST be called only after Validate().
func (c Config) Params() logic.Params {
	code, _ := logic.ParseCode(c.Alarm.Code)
	return logic.Params{
		Tick:          c.Tick,
		Window:        c.Alarm.Window,
		GasThreshold:  c.Alarm.GasThreshold,
		OverTempLevel: c.Alarm.OverTempLevel,
		Debounce:      c.Alarm.Debounce,
		Code:          code,
	}
}

// Pins converts the gpio section into a line assignment.
// It MUST be called only after Validate().
func (c Config) Pins() gpio.Pins {
	p := gpio.Pins{
		Chip:             c.GPIO.Chip,
		Siren:            c.GPIO.Siren,
		AlarmLed:         c.GPIO.AlarmLed,
		IncorrectCodeLed: c.GPIO.IncorrectCodeLed,
		LockoutLed:       c.GPIO.LockoutLed,
		TestButton:       c.GPIO.TestButton,
	}
	copy(p.Rows[:], c.GPIO.Rows)
	copy(p.Cols[:], c.GPIO.Cols)
	return p
}

// SensorConfig converts the sensors section into an analog reader configuration.
func (c Config) SensorConfig() analog.Config {
	return analog.Config{
		Transport:    c.Sensors.Transport,
		Address:      c.Sensors.Address,
		BaudRate:     c.Sensors.BaudRate,
		SlaveID:      c.Sensors.SlaveID,
		TempRegister: c.Sensors.TempRegister,
		GasRegister:  c.Sensors.GasRegister,
		FullScale:    c.Sensors.FullScale,
		Timeout:      c.Sensors.Timeout,
	}
}

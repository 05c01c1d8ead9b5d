package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Alarm         string      `json:"alarm"`
	Gas           bool        `json:"gas_detected"`
	OverTemp      bool        `json:"over_temperature"`
	TemperatureC  float64     `json:"temperature_c"`
	GasAverage    float64     `json:"gas_average"`
	Attempts      int         `json:"incorrect_attempts"`
	LockedOut     bool        `json:"locked_out"`
	Outputs       OutputsJSON `json:"outputs"`
	LogSize       int         `json:"log_size"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"event_counts"`
	Config        ConfigJSON  `json:"config"`
}

// OutputsJSON reports the actuator lines.
type OutputsJSON struct {
	Siren            bool `json:"siren"`
	AlarmLed         bool `json:"alarm_led"`
	IncorrectCodeLed bool `json:"incorrect_code_led"`
	LockoutLed       bool `json:"lockout_led"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	AlarmOn        int `json:"alarm_on"`
	GasOn          int `json:"gas_det_on"`
	OverTempOn     int `json:"over_temp_on"`
	IncorrectCodes int `json:"incorrect_codes"`
}

// ConfigJSON is the JSON representation of station config.
type ConfigJSON struct {
	TickMs        int64   `json:"tick_ms"`
	DebounceMs    int64   `json:"debounce_ms"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	GasThreshold  float64 `json:"gas_threshold"`
	OverTempLevel float64 `json:"over_temp_level"`
	Sensors       string  `json:"sensors,omitempty"`
	Broker        string  `json:"broker"`
}

// round2 keeps sensor values readable in payloads.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildInner converts a snapshot into its JSON form.
func BuildInner(snap Snapshot) StatusInner {
	v := snap.View
	alarm := string(v.Alarm)
	if alarm == "" {
		alarm = "UNKNOWN"
	}

	return StatusInner{
		Alarm:        alarm,
		Gas:          v.Gas,
		OverTemp:     v.OverTemp,
		TemperatureC: round2(v.TempC),
		GasAverage:   round2(v.GasAverage),
		Attempts:     v.Attempts,
		LockedOut:    v.LockedOut,
		Outputs: OutputsJSON{
			Siren:            v.Actuators.Siren,
			AlarmLed:         v.Actuators.AlarmLed,
			IncorrectCodeLed: v.Actuators.IncorrectCodeLed,
			LockoutLed:       v.Actuators.LockoutLed,
		},
		LogSize:       v.LogSize,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			AlarmOn:        v.Counts.AlarmOn,
			GasOn:          v.Counts.GasOn,
			OverTempOn:     v.Counts.OverTempOn,
			IncorrectCodes: v.Counts.IncorrectCodes,
		},
		Config: ConfigJSON{
			TickMs:        snap.Config.TickMs,
			DebounceMs:    snap.Config.DebounceMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			GasThreshold:  snap.Config.GasThreshold,
			OverTempLevel: snap.Config.OverTempLevel,
			Sensors:       snap.Config.Sensors,
			Broker:        snap.Config.Broker,
		},
	}
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := BuildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

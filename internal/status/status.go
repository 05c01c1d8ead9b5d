// Package status provides a thread-safe status tracker for the alarm station.
// The control loop writes it every tick; MQTT system events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/alarm-station/internal/logic"
)

// Config is the subset of station settings shown on the status page and
// in system payloads.
type Config struct {
	TickMs        int64
	DebounceMs    int64
	HeartbeatMs   int64
	GasThreshold  float64
	OverTempLevel float64
	Sensors       string // e.g. "rtu /dev/ttyUSB0"
	Broker        string
}

// Snapshot is a copy of the station state; View.Events is already a copy of
// the log, so nothing in it aliases the controller.
type Snapshot struct {
	View          logic.View
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime is Now minus StartTime.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker is written by the control loop and read by the HTTP handlers.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker starts in the idle state. now stamps each Snapshot; nil means
// time.Now.
func NewTracker(startTime time.Time, cfg Config, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		snap: Snapshot{
			View:      logic.View{Alarm: logic.AlarmIdle},
			StartTime: startTime,
			Config:    cfg,
		},
		now: now,
	}
}

// Update replaces the stored controller view.
func (t *Tracker) Update(v logic.View) {
	t.mu.Lock()
	t.snap.View = v
	t.mu.Unlock()
}

// SetMQTTConnected records the broker link state.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot copies the state and stamps Now from the tracker's clock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

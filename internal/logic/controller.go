package logic

import "time"

// Params are the tunable station parameters.
type Params struct {
	Tick          time.Duration
	Window        int
	GasThreshold  float64
	OverTempLevel float64
	Debounce      time.Duration
	Code          Code
}

// DefaultParams returns the factory configuration.
func DefaultParams() Params {
	return Params{
		Tick:          TickIncrement,
		Window:        SampleCount,
		GasThreshold:  GasThreshold,
		OverTempLevel: OverTempLevel,
		Debounce:      DebounceWindow,
		Code:          DefaultCode,
	}
}

// Controller aggregates all station state. It is owned by the tick loop and
// is not safe for concurrent use.
type Controller struct {
	sampler *Sampler
	keypad  *Keypad
	alarm   *Alarm
	log     EventLog

	alarmEdge Edge[bool]
	gasEdge   Edge[bool]
	tempEdge  Edge[bool]

	reading Reading
	counts  EventCounts

	startTime     time.Time
	lastHeartbeat time.Time
}

// NewController creates a controller. The startTime is used for calculating
// uptime in heartbeat events.
func NewController(p Params, startTime time.Time) *Controller {
	return &Controller{
		sampler:       NewSampler(p.Window, p.GasThreshold, p.OverTempLevel),
		keypad:        NewKeypad(p.Tick, p.Debounce),
		alarm:         NewAlarm(p.Tick, p.Code),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Tick runs one control cycle: sample, activate, keypad, deactivate, log.
func (c *Controller) Tick(in Input) Output {
	out := Output{Time: in.Time}

	c.reading = c.sampler.Sample(in.TempRaw, in.GasRaw)
	out.Reading = c.reading

	if c.alarm.Update(c.reading.Flags, in.Test) && in.Test {
		out.TestActivated = true
	}

	// Locked out: the keypad is not serviced at all.
	if !c.alarm.LockedOut() {
		scan := in.Scan
		if scan == nil {
			scan = func() Key { return NoKey }
		}
		if k := c.keypad.Update(scan); k != NoKey {
			out.Released = k
			if k == KeyHash {
				out.ShowLog = true
			} else {
				out.Code = c.alarm.EnterKey(k)
				if out.Code == CodeRejected {
					c.counts.IncorrectCodes++
				}
			}
		}
	}

	seconds := in.Time.Unix()
	det := c.alarm.Detectors()
	c.logEdge(&out, &c.alarmEdge, c.alarm.Active(), ElementAlarm, seconds, &c.counts.AlarmOn)
	c.logEdge(&out, &c.gasEdge, det.Gas, ElementGas, seconds, &c.counts.GasOn)
	c.logEdge(&out, &c.tempEdge, det.OverTemp, ElementOverTemp, seconds, &c.counts.OverTempOn)

	out.Actuators = c.alarm.Actuators()
	return out
}

func (c *Controller) logEdge(out *Output, e *Edge[bool], current bool, element string, seconds int64, count *int) {
	previous := e.Observe(current)
	if r, ok := c.log.RecordIfEdge(previous, current, element, seconds); ok {
		out.Records = append(out.Records, r)
		*count++
	}
}

// SubmitCode checks a full code entered outside the keypad.
func (c *Controller) SubmitCode(code Code) CodeResult {
	res := c.alarm.SubmitCode(code)
	if res == CodeRejected {
		c.counts.IncorrectCodes++
	}
	return res
}

// SetCode replaces the deactivation code and clears lockout.
func (c *Controller) SetCode(code Code) {
	c.alarm.SetCode(code)
}

// Code returns the current deactivation code.
func (c *Controller) Code() Code {
	return c.alarm.Code()
}

// AlarmActive reports whether the alarm is active.
func (c *Controller) AlarmActive() bool {
	return c.alarm.Active()
}

// GasDetected reports the sensor-derived gas flag from the last tick.
func (c *Controller) GasDetected() bool {
	return c.reading.Flags.Gas
}

// OverTemperature reports the sensor-derived over-temperature flag from the last tick.
func (c *Controller) OverTemperature() bool {
	return c.reading.Flags.OverTemp
}

// TemperatureC returns the averaged temperature from the last tick.
func (c *Controller) TemperatureC() float64 {
	return c.reading.TempC
}

// LockedOut reports whether the keypad is locked.
func (c *Controller) LockedOut() bool {
	return c.alarm.LockedOut()
}

// Events returns a copy of the event log, oldest first.
func (c *Controller) Events() []Record {
	return c.log.Records()
}

// Actuators returns the current output state.
func (c *Controller) Actuators() Actuators {
	return c.alarm.Actuators()
}

// EventCountsSnapshot returns a copy of the current event counts.
func (c *Controller) EventCountsSnapshot() EventCounts {
	return c.counts
}

// View returns a copy of the state for status consumers.
func (c *Controller) View() View {
	return View{
		Alarm:      c.alarm.State(),
		Gas:        c.reading.Flags.Gas,
		OverTemp:   c.reading.Flags.OverTemp,
		TempC:      c.reading.TempC,
		GasAverage: c.reading.GasAverage,
		Attempts:   c.alarm.Attempts(),
		LockedOut:  c.alarm.LockedOut(),
		Actuators:  c.alarm.Actuators(),
		Counts:     c.counts,
		LogSize:    c.log.Len(),
		Events:     c.log.Records(),
	}
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}

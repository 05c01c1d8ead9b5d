package logic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rig drives a controller one tick at a time with scripted inputs.
type rig struct {
	c    *Controller
	now  time.Time
	temp float64
	gas  float64
	test bool
	held Key
}

func newRig() *rig {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &rig{
		c:   NewController(DefaultParams(), start),
		now: start,
	}
}

func (r *rig) tick() Output {
	in := Input{
		TempRaw: r.temp,
		GasRaw:  r.gas,
		Test:    r.test,
		Scan:    func() Key { return r.held },
		Time:    r.now,
	}
	r.now = r.now.Add(TickIncrement)
	return r.c.Tick(in)
}

func (r *rig) ticks(n int) []Output {
	outs := make([]Output, 0, n)
	for i := 0; i < n; i++ {
		outs = append(outs, r.tick())
	}
	return outs
}

// press holds k long enough to pass debounce, then releases it.
func (r *rig) press(k Key) []Output {
	r.held = k
	outs := r.ticks(6)
	r.held = NoKey
	return append(outs, r.tick())
}

func (r *rig) typeKeys(keys string) []Output {
	var outs []Output
	for i := 0; i < len(keys); i++ {
		outs = append(outs, r.press(Key(keys[i]))...)
	}
	return outs
}

func labels(outs []Output) []string {
	var l []string
	for _, o := range outs {
		for _, rec := range o.Records {
			l = append(l, rec.Label)
		}
	}
	return l
}

func TestControllerGasScenario(t *testing.T) {
	r := newRig()
	r.gas = 0.5

	outs := r.ticks(100)

	assert.Equal(t, []string{"ALARM_ON", "GAS_DET_ON"}, labels(outs))
	for i := 0; i < 80; i++ {
		require.Falsef(t, outs[i].Actuators.Siren, "tick %d: siren before threshold", i)
	}
	assert.Len(t, outs[80].Records, 2, "threshold crossed on the 81st sample")
	assert.True(t, outs[99].Actuators.Siren)
	assert.True(t, r.c.AlarmActive())
	assert.True(t, r.c.GasDetected())
	assert.Equal(t, 1, r.c.EventCountsSnapshot().GasOn)
}

func TestControllerKeypadDeactivation(t *testing.T) {
	r := newRig()
	r.test = true
	out := r.tick()
	r.test = false

	require.True(t, out.TestActivated)
	require.Equal(t, []string{"ALARM_ON", "GAS_DET_ON", "OVER_TEMP_ON"}, labels([]Output{out}))
	require.True(t, r.c.AlarmActive())

	outs := r.typeKeys("1805")
	last := outs[len(outs)-1]
	assert.Equal(t, Key('5'), last.Released)
	assert.Equal(t, CodeAccepted, last.Code)
	assert.Empty(t, labels(outs), "deactivation is not logged")
	assert.False(t, r.c.AlarmActive())
	assert.False(t, last.Actuators.Siren)
	assert.False(t, last.Actuators.AlarmLed)
	assert.Len(t, r.c.Events(), 3)
}

func TestControllerTestButtonWhileActive(t *testing.T) {
	r := newRig()
	r.gas = 0.5
	r.ticks(100)

	r.test = true
	out := r.tick()
	assert.False(t, out.TestActivated, "already active")
	assert.Equal(t, []string{"OVER_TEMP_ON"}, labels([]Output{out}))
	assert.Equal(t, Flags{Gas: true, OverTemp: true}, r.c.alarm.Detectors())

	// Sensor-derived flag stays honest for the console.
	assert.False(t, r.c.OverTemperature())
}

func TestControllerReactivationDoesNotRelogDetector(t *testing.T) {
	r := newRig()
	r.gas = 0.5
	r.ticks(100)

	outs := r.typeKeys("1805")
	require.Equal(t, CodeAccepted, outs[len(outs)-1].Code)
	require.False(t, r.c.AlarmActive())

	// Gas is still present: the alarm re-arms immediately.
	out := r.tick()
	assert.True(t, r.c.AlarmActive())
	assert.Equal(t, []string{"ALARM_ON"}, labels([]Output{out}))
}

func TestControllerKeypadLockout(t *testing.T) {
	r := newRig()
	r.test = true
	r.tick()
	r.test = false

	var rejected int
	for i := 0; i < MaxIncorrectAttempts; i++ {
		for _, o := range r.typeKeys("2468") {
			if o.Code == CodeRejected {
				rejected++
			}
		}
	}
	require.Equal(t, MaxIncorrectAttempts, rejected)
	require.True(t, r.c.LockedOut())
	assert.Equal(t, MaxIncorrectAttempts, r.c.EventCountsSnapshot().IncorrectCodes)

	outs := r.typeKeys("1805#")
	for _, o := range outs {
		assert.Equal(t, NoKey, o.Released)
		assert.False(t, o.ShowLog)
		assert.True(t, o.Actuators.LockoutLed)
	}
	assert.True(t, r.c.AlarmActive())
}

func TestControllerHashShowsLog(t *testing.T) {
	r := newRig()
	r.typeKeys("18")
	outs := r.press(KeyHash)
	last := outs[len(outs)-1]
	assert.True(t, last.ShowLog)
	assert.Equal(t, CodeNone, last.Code)
	assert.Equal(t, 2, r.c.alarm.Cursor())
}

func TestControllerLogKeepsFiveMostRecent(t *testing.T) {
	r := newRig()
	for i := 0; i < 3; i++ {
		r.test = true
		r.tick()
		r.test = false
		r.tick() // detectors drop, alarm latched
		outs := r.typeKeys("1805")
		require.Equal(t, CodeAccepted, outs[len(outs)-1].Code)
		r.tick()
	}

	// 3 activations × 3 elements = 9 ON transitions
	counts := r.c.EventCountsSnapshot()
	assert.Equal(t, 3, counts.AlarmOn)
	assert.Equal(t, 3, counts.GasOn)
	assert.Equal(t, 3, counts.OverTempOn)

	got := r.c.Events()
	require.Len(t, got, LogCapacity)
	want := []string{"GAS_DET_ON", "OVER_TEMP_ON", "ALARM_ON", "GAS_DET_ON", "OVER_TEMP_ON"}
	for i, rec := range got {
		assert.Equalf(t, want[i], rec.Label, "record %d", i)
		if i > 0 {
			assert.GreaterOrEqual(t, rec.Seconds, got[i-1].Seconds)
		}
	}
}

func TestControllerSubmitAndSetCode(t *testing.T) {
	r := newRig()
	r.test = true
	r.tick()
	r.test = false

	assert.Equal(t, CodeRejected, r.c.SubmitCode(Code{'1', '1', '1', '1'}))
	assert.Equal(t, 1, r.c.EventCountsSnapshot().IncorrectCodes)
	assert.True(t, r.c.Actuators().IncorrectCodeLed)

	r.c.SetCode(Code{'A', 'B', 'C', 'D'})
	assert.Equal(t, Code{'A', 'B', 'C', 'D'}, r.c.Code())
	assert.Equal(t, CodeAccepted, r.c.SubmitCode(Code{'A', 'B', 'C', 'D'}))
	assert.False(t, r.c.AlarmActive())
}

func TestControllerNilScan(t *testing.T) {
	c := NewController(DefaultParams(), time.Time{})
	out := c.Tick(Input{Time: time.Unix(100, 0)})
	assert.Equal(t, NoKey, out.Released)
	assert.Equal(t, AlarmIdle, c.View().Alarm)
}

func TestControllerView(t *testing.T) {
	r := newRig()
	r.temp = 0.1
	r.gas = 0.5
	r.ticks(100)

	v := r.c.View()
	assert.Equal(t, AlarmActive, v.Alarm)
	assert.True(t, v.Gas)
	assert.True(t, v.OverTemp)
	assert.InDelta(t, 33.0, v.TempC, 1e-6)
	assert.InDelta(t, 0.5, v.GasAverage, 1e-9)
	assert.True(t, v.Actuators.Siren)
	assert.Equal(t, 3, v.LogSize)

	// Over-temperature crosses 25 °C at tick 76, gas crosses 0.4 at tick 81.
	require.Len(t, v.Events, 3)
	assert.Equal(t, "ALARM_ON", v.Events[0].Label)
	assert.Equal(t, "OVER_TEMP_ON", v.Events[1].Label)
	assert.Equal(t, "GAS_DET_ON", v.Events[2].Label)

	v.Events[0].Label = "changed"
	assert.Equal(t, "ALARM_ON", r.c.Events()[0].Label, "view holds a copy")
}

func TestCheckHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(DefaultParams(), start)

	assert.Nil(t, c.CheckHeartbeat(start.Add(time.Hour), 0), "disabled")
	assert.Nil(t, c.CheckHeartbeat(start.Add(14*time.Minute), 15*time.Minute))

	hb := c.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, 15*time.Minute, hb.Uptime)

	assert.Nil(t, c.CheckHeartbeat(start.Add(20*time.Minute), 15*time.Minute))
	hb = c.CheckHeartbeat(start.Add(31*time.Minute), 15*time.Minute)
	require.NotNil(t, hb)
	assert.Equal(t, 31*time.Minute, hb.Uptime)
}

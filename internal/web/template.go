package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/alarm-station/internal/logic"
	"github.com/sweeney/alarm-station/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	// alarmClass maps an alarm state to its CSS class; empty means no
	// snapshot has been taken yet.
	"alarmClass": func(s logic.AlarmState) string {
		switch s {
		case logic.AlarmActive:
			return "on"
		case logic.AlarmIdle:
			return "off"
		}
		return "unknown"
	},
	"alarmName": func(s logic.AlarmState) string {
		if s == "" {
			return "UNKNOWN"
		}
		return string(s)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"uptime": formatUptime,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Alarm Station</title>
<style>
body { font: 14px/1.4 monospace; max-width: 40em; margin: 1.5em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.3em; border-bottom: 2px solid #222; }
h2 { font-size: 1.05em; margin-top: 1.5em; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 3px 6px; text-align: left; border-bottom: 1px dotted #bbb; }
th { width: 45%; font-weight: normal; color: #555; }
.on, .disconnected { color: #c00; font-weight: bold; }
.off { color: #070; }
.unknown { color: #b60; }
.connected { color: #070; }
</style>
</head>
<body>
<h1>Alarm Station</h1>

<h2>State</h2>
<table>
<tr><th>Alarm</th><td id="alarm-state" class="{{alarmClass .View.Alarm}}">{{alarmName .View.Alarm}}</td></tr>
<tr><th>Gas</th><td class="{{if .View.Gas}}on{{else}}off{{end}}">{{if .View.Gas}}detected{{else}}clear{{end}} ({{printf "%.2f" .View.GasAverage}})</td></tr>
<tr><th>Temperature</th><td class="{{if .View.OverTemp}}on{{else}}off{{end}}">{{printf "%.2f" .View.TempC}} °C</td></tr>
<tr><th>Incorrect attempts</th><td>{{.View.Attempts}}</td></tr>
<tr><th>Keypad</th><td class="{{if .View.LockedOut}}on{{else}}off{{end}}">{{if .View.LockedOut}}locked out{{else}}ready{{end}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Siren</th><td>{{onOff .View.Actuators.Siren}}</td></tr>
<tr><th>Alarm LED</th><td>{{onOff .View.Actuators.AlarmLed}}</td></tr>
<tr><th>Incorrect code LED</th><td>{{onOff .View.Actuators.IncorrectCodeLed}}</td></tr>
<tr><th>Lockout LED</th><td>{{onOff .View.Actuators.LockoutLed}}</td></tr>
</table>

<h2>Recent Events</h2>
<table>
{{range .Events}}<tr><th>{{.Event}}</th><td>{{.Timestamp}}</td></tr>
{{else}}<tr><td>none</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>ALARM ON</th><td>{{.View.Counts.AlarmOn}}</td></tr>
<tr><th>GAS_DET ON</th><td>{{.View.Counts.GasOn}}</td></tr>
<tr><th>OVER_TEMP ON</th><td>{{.View.Counts.OverTempOn}}</td></tr>
<tr><th>Incorrect codes</th><td>{{.View.Counts.IncorrectCodes}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Gas threshold</th><td>{{.Config.GasThreshold}}</td></tr>
<tr><th>Over-temperature</th><td>{{.Config.OverTempLevel}} °C</td></tr>
<tr><th>Sensors</th><td>{{.Config.Sensors}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/events.json">Events</a></p>
</body>
</html>
`

// formatUptime renders d as "2d 3h 4m 5s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	parts := []struct {
		n    int64
		unit string
	}{
		{secs / 86400, "d"},
		{secs / 3600 % 24, "h"},
		{secs / 60 % 60, "m"},
		{secs % 60, "s"},
	}
	var b strings.Builder
	for i, p := range parts {
		if b.Len() == 0 && p.n == 0 && i < len(parts)-1 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d%s", p.n, p.unit)
	}
	return b.String()
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Events []EventJSON
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Events:   events(snap.View.Events),
	}
	indexTmpl.Execute(w, data)
}

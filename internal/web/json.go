package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/alarm-station/internal/logic"
	"github.com/sweeney/alarm-station/internal/status"
)

// StatusJSON is the page's JSON document: the status shared with MQTT
// system events, plus the event log.
type StatusJSON struct {
	Status status.StatusInner `json:"status"`
	Events []EventJSON        `json:"events"`
}

// EventJSON is one event log record.
type EventJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// EventsJSON is the /events.json document.
type EventsJSON struct {
	Events []EventJSON `json:"events"`
}

func events(records []logic.Record) []EventJSON {
	out := make([]EventJSON, 0, len(records))
	for _, r := range records {
		out = append(out, EventJSON{
			Timestamp: r.Time().UTC().Format(time.RFC3339),
			Event:     r.Label,
		})
	}
	return out
}

func formatJSON(snap status.Snapshot) []byte {
	sj := StatusJSON{
		Status: status.BuildInner(snap),
		Events: events(snap.View.Events),
	}
	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}

func formatEvents(records []logic.Record) []byte {
	data, _ := json.MarshalIndent(EventsJSON{Events: events(records)}, "", "  ")
	return data
}

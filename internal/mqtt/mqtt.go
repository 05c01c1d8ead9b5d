// Package mqtt forwards logged alarm records and station lifecycle events
// to a broker. Forwarding is optional: the control loop runs the same with
// NopPublisher.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/alarm-station/internal/logic"
)

const (
	// Topic carries one message per logged record.
	Topic = "alarm/station/events"
	// TopicSystem carries STARTUP, HEARTBEAT and SHUTDOWN.
	TopicSystem = "alarm/station/system"
)

// Publisher is the station's outbound event sink. Errors are reported to the
// caller, which logs them and carries on.
type Publisher interface {
	Publish(record logic.Record) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus is implemented by publishers that know their broker state.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a station lifecycle notice.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // STARTUP, HEARTBEAT or SHUTDOWN
	Reason    string // signal name, SHUTDOWN only
	// RawPayload, when set, is sent as is in place of the minimal system payload.
	RawPayload []byte
	Retained   bool
}

// ClientID returns "alarm-station-" plus a short random suffix so two
// stations on one broker never evict each other's session.
func ClientID() string {
	return "alarm-station-" + uuid.NewString()[:8]
}

// Payload is the body published on Topic.
type Payload struct {
	Alarm AlarmPayload `json:"alarm"`
}

// AlarmPayload is one record; Element is the label without its _ON suffix.
type AlarmPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Element   string `json:"element"`
}

// FormatPayload encodes a record for Topic.
func FormatPayload(record logic.Record) ([]byte, error) {
	return json.Marshal(Payload{Alarm: AlarmPayload{
		Timestamp: record.Time().UTC().Format(time.RFC3339),
		Event:     record.Label,
		Element:   strings.TrimSuffix(record.Label, "_ON"),
	}})
}

// SystemPayload is the minimal body on TopicSystem, used for the broker's
// last-will message and for events sent without a status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner is the event, its time and an optional reason.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload returns event.RawPayload when present, otherwise the
// minimal SystemPayload.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}

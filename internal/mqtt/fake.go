package mqtt

import (
	"github.com/sweeney/alarm-station/internal/logic"
)

// FakePublisher keeps everything handed to it so tests can inspect what the
// station would have sent to the broker.
type FakePublisher struct {
	Records      []logic.Record
	SystemEvents []SystemEvent

	// Payloads and SystemPayloads hold the encoded form of each accepted
	// record and system event, index-aligned with Records and SystemEvents.
	Payloads       [][]byte
	SystemPayloads [][]byte

	PublishError       error // returned by Publish when set
	PublishSystemError error // returned by PublishSystem when set

	Connected bool // reported by IsConnected
	Closed    bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish encodes the record as the real publisher would and keeps both forms.
// Nothing is kept when PublishError is set.
func (f *FakePublisher) Publish(record logic.Record) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(record)
	if err != nil {
		return err
	}
	f.Records = append(f.Records, record)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem is Publish for lifecycle events.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool { return f.Connected }

// Labels lists the published record labels in publish order.
func (f *FakePublisher) Labels() []string {
	out := make([]string, len(f.Records))
	for i, r := range f.Records {
		out[i] = r.Label
	}
	return out
}

// SystemEventNames lists the published system event names in publish order.
func (f *FakePublisher) SystemEventNames() []string {
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Reset returns the fake to its zero state, injected errors included.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}

package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int) bufferedMsg {
	return bufferedMsg{topic: Topic, payload: []byte{byte(i)}, qos: 1}
}

func system(i int, retained bool) bufferedMsg {
	return bufferedMsg{topic: TopicSystem, payload: []byte{byte(i)}, qos: 1, retained: retained}
}

func payloadBytes(msgs []bufferedMsg) []byte {
	out := make([]byte, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10)
	assert.Nil(t, o.drain())
	assert.Zero(t, o.len())
}

func TestOutboxFIFO(t *testing.T) {
	o := newOutbox(4)
	o.push(record(0))
	o.push(system(1, false))
	o.push(record(2))
	assert.Equal(t, 3, o.len())
	assert.Equal(t, []byte{0, 1, 2}, payloadBytes(o.drain()))
	assert.Nil(t, o.drain(), "drain empties the outbox")
}

func TestOutboxOverflowDropsOldestRecord(t *testing.T) {
	o := newOutbox(5)
	for i := 0; i < 8; i++ {
		o.push(record(i))
	}
	assert.Equal(t, 5, o.len())
	assert.Equal(t, 3, o.dropped)

	assert.Equal(t, []byte{3, 4, 5, 6, 7}, payloadBytes(o.drain()))
	assert.Zero(t, o.dropped, "drain resets the drop count")
}

func TestOutboxOverflowSparesRecords(t *testing.T) {
	o := newOutbox(4)
	o.push(record(0))
	o.push(system(1, false)) // heartbeat
	o.push(record(2))
	o.push(system(3, false)) // heartbeat
	o.push(record(4))
	o.push(record(5))

	assert.Equal(t, []byte{0, 2, 4, 5}, payloadBytes(o.drain()), "heartbeats evicted before any record")
}

func TestOutboxRetainedCoalesced(t *testing.T) {
	o := newOutbox(10)
	o.push(system(1, true)) // startup
	o.push(record(2))
	o.push(system(3, false))
	o.push(system(4, true)) // shutdown replaces startup

	got := o.drain()
	assert.Equal(t, []byte{2, 3, 4}, payloadBytes(got))
	assert.True(t, got[2].retained)
}

func TestOutboxReusedAfterDrain(t *testing.T) {
	o := newOutbox(3)
	o.push(record(1))
	o.push(record(2))
	o.drain()

	for i := 10; i < 14; i++ {
		o.push(record(i))
	}
	assert.Equal(t, []byte{11, 12, 13}, payloadBytes(o.drain()))
}

func TestOutboxMinimumCapacity(t *testing.T) {
	o := newOutbox(0)
	o.push(record(1))
	o.push(record(2))
	assert.Equal(t, []byte{2}, payloadBytes(o.drain()))
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(2)
	o.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"system":{}}`),
		qos:      1,
		retained: true,
	})

	got := o.drain()
	require.Len(t, got, 1)
	assert.Equal(t, TopicSystem, got[0].topic)
	assert.Equal(t, `{"system":{}}`, string(got[0].payload))
	assert.Equal(t, byte(1), got[0].qos)
	assert.True(t, got[0].retained)
}

package mqtt

import "github.com/sweeney/alarm-station/internal/log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable, oldest first.
//
// Alarm records outrank system messages: when full, the oldest system
// message is evicted before any record is. A retained message replaces an
// earlier retained message on the same topic, since the broker would only
// keep the last one.
//
// Not safe for concurrent use; RealPublisher holds its mutex around every call.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.retained {
		if i := o.find(func(m bufferedMsg) bool { return m.retained && m.topic == msg.topic }); i >= 0 {
			o.remove(i)
		}
	}

	if len(o.msgs) == o.capacity {
		victim := o.find(func(m bufferedMsg) bool { return m.topic != Topic })
		if victim < 0 {
			victim = 0
		}
		if o.dropped == 0 {
			log.Warnw("mqtt buffer full, dropping messages", "capacity", o.capacity, "topic", o.msgs[victim].topic)
		}
		o.remove(victim)
		o.dropped++
	}

	o.msgs = append(o.msgs, msg)
}

// find returns the index of the oldest message matching match, or -1.
func (o *outbox) find(match func(bufferedMsg) bool) int {
	for i, m := range o.msgs {
		if match(m) {
			return i
		}
	}
	return -1
}

func (o *outbox) remove(i int) {
	copy(o.msgs[i:], o.msgs[i+1:])
	o.msgs[len(o.msgs)-1] = bufferedMsg{}
	o.msgs = o.msgs[:len(o.msgs)-1]
}

// drain returns every held message, oldest first, and empties the outbox.
func (o *outbox) drain() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	if o.dropped > 0 {
		log.Warnw("mqtt messages lost while disconnected", "dropped", o.dropped)
	}

	result := make([]bufferedMsg, len(o.msgs))
	copy(result, o.msgs)
	o.msgs = o.msgs[:0]
	o.dropped = 0
	return result
}

func (o *outbox) len() int {
	return len(o.msgs)
}

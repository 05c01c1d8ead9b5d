package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/alarm-station/internal/log"
	"github.com/sweeney/alarm-station/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	mu     sync.Mutex
	buffer *outbox
}

// NewRealPublisher creates a publisher for the given broker. If the broker is
// not reachable within the connect timeout the publisher keeps retrying in
// the background and buffers until it connects.
func NewRealPublisher(broker string, bufferSize int) (*RealPublisher, error) {
	p := &RealPublisher{buffer: newOutbox(bufferSize)}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Infow("mqtt connected", "broker", broker)
			p.flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("mqtt connection lost", "broker", broker, "error", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Warnw("mqtt broker not reachable yet, buffering", "broker", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newPublisher(client paho.Client, bufferSize int) *RealPublisher {
	return &RealPublisher{client: client, buffer: newOutbox(bufferSize)}
}

// Publish sends an event-log record to the MQTT broker.
func (p *RealPublisher) Publish(record logic.Record) error {
	payload, err := FormatPayload(record)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1: alarm records must not be lost
	p.send(bufferedMsg{topic: Topic, payload: payload, qos: 1})
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// send hands msg to the client without waiting for the broker, so the
// control loop never stalls on the network.
func (p *RealPublisher) send(msg bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		p.buffer.push(msg)
		return
	}
	p.publishLocked(msg)
}

func (p *RealPublisher) publishLocked(msg bufferedMsg) {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go p.watch(token, msg)
}

// watch re-buffers msg if the broker did not acknowledge it.
func (p *RealPublisher) watch(token paho.Token, msg bufferedMsg) {
	var err error
	if !token.WaitTimeout(publishTimeout) {
		err = fmt.Errorf("publish timeout")
	} else {
		err = token.Error()
	}
	if err == nil {
		return
	}

	log.Warnw("mqtt publish failed, buffering", "topic", msg.topic, "error", err)
	p.mu.Lock()
	p.buffer.push(msg)
	p.mu.Unlock()
}

// flush replays buffered messages, oldest first.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.buffer.drain()
	if len(msgs) > 0 {
		log.Infow("mqtt replaying buffered messages", "count", len(msgs))
	}
	for _, msg := range msgs {
		p.publishLocked(msg)
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// IsConnected reports whether the client is connected to the broker.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce for in-flight messages
	return nil
}

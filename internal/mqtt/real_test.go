package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/alarm-station/internal/logic"
)

// doneToken is a completed paho token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type sent struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// stubClient implements the parts of paho.Client that RealPublisher uses.
type stubClient struct {
	paho.Client

	mu           sync.Mutex
	open         bool
	publishErr   error
	sent         []sent
	disconnected bool
}

func (c *stubClient) IsConnected() bool { return c.IsConnectionOpen() }

func (c *stubClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *stubClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{topic, qos, retained, string(payload.([]byte))})
	return doneToken{err: c.publishErr}
}

func (c *stubClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func (c *stubClient) sentTopics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var topics []string
	for _, s := range c.sent {
		topics = append(topics, s.topic)
	}
	return topics
}

func TestRealPublisherConnected(t *testing.T) {
	c := &stubClient{open: true}
	p := newPublisher(c, 10)

	require.NoError(t, p.Publish(logic.Record{Seconds: at.Unix(), Label: "ALARM_ON"}))
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: at, Event: "STARTUP", Retained: true}))

	require.Len(t, c.sent, 2)
	assert.Equal(t, sent{Topic, 1, false,
		`{"alarm":{"timestamp":"2026-02-02T22:18:12Z","event":"ALARM_ON","element":"ALARM"}}`}, c.sent[0])
	assert.Equal(t, TopicSystem, c.sent[1].topic)
	assert.True(t, c.sent[1].retained)
	assert.True(t, p.IsConnected())
	assert.Zero(t, p.Buffered())
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 10)

	require.NoError(t, p.Publish(logic.Record{Seconds: at.Unix(), Label: "ALARM_ON"}))
	require.NoError(t, p.Publish(logic.Record{Seconds: at.Unix(), Label: "GAS_DET_ON"}))
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: at, Event: "HEARTBEAT"}))
	assert.Empty(t, c.sent)
	assert.Equal(t, 3, p.Buffered())

	c.setOpen(true)
	p.flush()

	assert.Equal(t, []string{Topic, Topic, TopicSystem}, c.sentTopics())
	assert.Contains(t, c.sent[0].payload, "ALARM_ON")
	assert.Contains(t, c.sent[1].payload, "GAS_DET_ON")
	assert.Zero(t, p.Buffered())
}

func TestRealPublisherRebuffersFailedPublish(t *testing.T) {
	c := &stubClient{open: true, publishErr: errors.New("not authorized")}
	p := newPublisher(c, 10)

	require.NoError(t, p.Publish(logic.Record{Seconds: at.Unix(), Label: "OVER_TEMP_ON"}))
	require.Eventually(t, func() bool { return p.Buffered() == 1 }, time.Second, time.Millisecond)

	c.mu.Lock()
	c.publishErr = nil
	c.mu.Unlock()
	p.flush()

	assert.Len(t, c.sentTopics(), 2, "original attempt plus replay")
	assert.Zero(t, p.Buffered())
}

func TestRealPublisherClose(t *testing.T) {
	c := &stubClient{}
	p := newPublisher(c, 1)
	require.NoError(t, p.Close())
	assert.True(t, c.disconnected)
}

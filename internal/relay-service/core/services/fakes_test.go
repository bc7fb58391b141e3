package services

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	messagebrokerdto "ride-relay/internal/relay-service/core/domain/message_broker_dto"
)

var errFakeClosed = errors.New("fake conn closed")

type fakeConn struct {
	name string

	mu       sync.Mutex
	sent     [][]byte
	closed   int
	failSend bool
}

func newConn(name string) *fakeConn {
	return &fakeConn{name: name}
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed > 0 || c.failSend {
		return errFakeClosed
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed > 0
}

// messages decodes everything sent to c so far and clears it.
func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	c.sent = nil
	return out
}

type recordingMirror struct {
	mu        sync.Mutex
	statuses  []messagebrokerdto.DriverStatusEvent
	locations []messagebrokerdto.LocationEvent
}

func (m *recordingMirror) DriverStatus(ev messagebrokerdto.DriverStatusEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, ev)
}

func (m *recordingMirror) DriverLocation(ev messagebrokerdto.LocationEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = append(m.locations, ev)
}

package ws

import (
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/core/ports"
	"ride-relay/internal/relay-service/core/services"
)

// countingDispatcher lets tests wait until the relay has processed what the
// clients sent, since delivery across sockets is asynchronous.
type countingDispatcher struct {
	*services.Dispatcher
	handled atomic.Int64
	gone    atomic.Int64
}

func (d *countingDispatcher) HandleMessage(conn ports.Conn, raw []byte) {
	d.Dispatcher.HandleMessage(conn, raw)
	d.handled.Add(1)
}

func (d *countingDispatcher) HandleDisconnect(conn ports.Conn) {
	d.Dispatcher.HandleDisconnect(conn)
	d.gone.Add(1)
}

func startRelay(t *testing.T) (*countingDispatcher, *Handler, string) {
	t.Helper()
	dis := &countingDispatcher{Dispatcher: services.NewDispatcher(mylogger.Discard(), services.Options{})}
	h := NewHandler(mylogger.Discard(), dis, 16)
	srv := httptest.NewServer(h.WsHandler())
	t.Cleanup(func() {
		srv.Close()
		h.CloseAll()
	})
	return dis, h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeJSON(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitHandled(t *testing.T, dis *countingDispatcher, n int64) {
	t.Helper()
	require.Eventually(t, func() bool { return dis.handled.Load() >= n }, 2*time.Second, 5*time.Millisecond)
}

func TestRelayEndToEnd(t *testing.T) {
	dis, _, url := startRelay(t)
	c1 := dial(t, url)
	d1 := dial(t, url)

	writeJSON(t, c1, map[string]any{"type": "register", "role": "customer", "id": "C1"})
	writeJSON(t, d1, map[string]any{"type": "register", "role": "rider", "id": "D1"})
	waitHandled(t, dis, 2)

	writeJSON(t, d1, map[string]any{
		"type":     "riderLocationUpdate",
		"role":     "rider",
		"driverId": "D1",
		"location": map[string]any{"latitude": 1, "longitude": 2, "address": "X"},
	})
	assert.Equal(t, map[string]any{
		"type":      "riderLocationUpdated",
		"driverId":  "D1",
		"latitude":  1.0,
		"longitude": 2.0,
		"address":   "X",
	}, readJSON(t, c1))

	writeJSON(t, c1, map[string]any{
		"type":        "rideOffer",
		"role":        "customer",
		"rideDetails": map[string]any{"status": "offer", "targetId": "D1"},
	})
	offer := readJSON(t, d1)
	assert.Equal(t, "newRideOffer", offer["type"])
	assert.Equal(t, map[string]any{"status": "offer", "targetId": "D1"}, offer["rideDetails"])

	writeJSON(t, d1, map[string]any{"type": "acceptRideOffer", "role": "rider", "customerId": "C1"})
	assert.Equal(t, "rideofferAccepted", readJSON(t, c1)["type"])
}

func TestDuplicateRegistrationClosesOldSocket(t *testing.T) {
	dis, h, url := startRelay(t)
	first := dial(t, url)
	second := dial(t, url)

	writeJSON(t, first, map[string]any{"type": "register", "role": "rider", "id": "D1"})
	waitHandled(t, dis, 1)
	writeJSON(t, second, map[string]any{"type": "register", "role": "rider", "id": "D1"})
	waitHandled(t, dis, 2)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())

	require.Eventually(t, func() bool { return h.Count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestDriverDropBroadcastsOffline(t *testing.T) {
	dis, h, url := startRelay(t)
	c1 := dial(t, url)
	d1 := dial(t, url)

	writeJSON(t, c1, map[string]any{"type": "register", "role": "customer", "id": "C1"})
	writeJSON(t, d1, map[string]any{"type": "register", "role": "rider", "id": "D1"})
	waitHandled(t, dis, 2)

	require.NoError(t, d1.Close())

	assert.Equal(t, map[string]any{"type": "driverOffline", "driverId": "D1"}, readJSON(t, c1))
	require.Eventually(t, func() bool { return h.Count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	dis, _, url := startRelay(t)
	c1 := dial(t, url)

	writeJSON(t, c1, map[string]any{"type": "register", "role": "customer", "id": "C1"})
	require.NoError(t, c1.WriteMessage(websocket.TextMessage, []byte("{not json")))
	waitHandled(t, dis, 2)

	writeJSON(t, c1, map[string]any{"type": "getDriverLocation", "role": "customer", "driverId": "D1"})
	msg := readJSON(t, c1)
	assert.Equal(t, "driverNotFound", msg["type"])
	assert.Equal(t, "Driver with ID D1 not found.", msg["message"])
}

func TestCloseAllRefusesLateClients(t *testing.T) {
	dis, h, url := startRelay(t)
	early := dial(t, url)
	writeJSON(t, early, map[string]any{"type": "register", "role": "customer", "id": "C1"})
	waitHandled(t, dis, 1)

	h.CloseAll()
	assert.Zero(t, h.Count())

	late := dial(t, url)
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := late.ReadMessage()
	require.Error(t, err)
	assert.Zero(t, h.Count())
	assert.Equal(t, int64(1), dis.handled.Load())
}

func TestClientSendAfterClose(t *testing.T) {
	c := NewClient(nil, nil, mylogger.Discard(), 1)

	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), ErrEgressFull)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send([]byte("c")), ErrClientClosed)
}

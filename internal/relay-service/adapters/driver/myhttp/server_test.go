package myhttp

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride-relay/internal/config"
	"ride-relay/internal/mylogger"
)

func testConfig() *config.Config {
	return &config.Config{
		WS:       &config.WebSocketconfig{Port: 0, EgressBuffer: 8},
		Relay:    &config.Relayconfig{UniformNotFound: true},
		RabbitMq: &config.RabbitMqconfig{},
		Log:      &config.Loggerconfig{Level: mylogger.LevelError},
	}
}

func TestServerServesRelay(t *testing.T) {
	srv := NewServer(context.Background(), mylogger.Discard(), testConfig())

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run() }()

	var addr net.Addr
	require.Eventually(t, func() bool {
		addr = srv.Addr()
		return addr != nil
	}, 2*time.Second, 5*time.Millisecond)

	url := fmt.Sprintf("ws://127.0.0.1:%d/", addr.(*net.TCPAddr).Port)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "register", "role": "rider", "id": "D1"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "reached", "role": "rider", "customer_id": "C1"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, map[string]any{"status": "error"}, msg)

	require.NoError(t, srv.Stop(context.Background()))

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

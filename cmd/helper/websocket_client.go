package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ride-relay/internal/mylogger"

	"github.com/gorilla/websocket"
)

type WebSocketClient struct {
	conn   *websocket.Conn
	ctx    context.Context
	logger mylogger.Logger
	mu     sync.Mutex
}

func NewWebSocketClient(ctx context.Context, logger mylogger.Logger) *WebSocketClient {
	return &WebSocketClient{
		ctx:    ctx,
		logger: logger,
	}
}

func (w *WebSocketClient) Connect(url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(w.ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connecting to websocket: %w", err)
	}

	w.conn = conn
	w.logger.Action("ws_connected").Info("websocket connected", "url", url)
	return nil
}

func (w *WebSocketClient) Close() error {
	if w.conn == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return w.conn.Close()
}

// SendMessage writes message as one JSON text frame. Safe for concurrent use.
func (w *WebSocketClient) SendMessage(message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	time.Sleep(SendDelay)
	return nil
}

// ReadMessages hands every frame to handler until the connection fails or
// ctx is cancelled.
func (w *WebSocketClient) ReadMessages(handler func(payload []byte) error) error {
	for {
		_, payload, err := w.conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading message: %w", err)
		}

		if err := handler(payload); err != nil {
			w.logger.Error("error handling message", err)
		}
	}
}

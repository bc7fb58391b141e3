package ws

import (
	"net/http"
	"sync"

	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/core/ports"

	"github.com/gorilla/websocket"
)

// websocketUpgrader turns incoming HTTP requests into persistent websocket
// connections. Participants are not authenticated, so any origin is allowed.
var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ClientList is the set of open clients, kept so shutdown can close them.
type ClientList map[*Client]bool

type Handler struct {
	sync.RWMutex
	clients ClientList
	dis     ports.IDispatcher
	log     mylogger.Logger
	buffer  int
	wg      sync.WaitGroup
	closing bool
}

func NewHandler(log mylogger.Logger, dis ports.IDispatcher, egressBuffer int) *Handler {
	return &Handler{
		clients: make(ClientList),
		dis:     dis,
		log:     log,
		buffer:  egressBuffer,
	}
}

func (h *Handler) WsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.log.Action("ws_handler")

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err, "remote", r.RemoteAddr)
			return
		}

		client := NewClient(conn, h.dis, h.log.With("remote", r.RemoteAddr), h.buffer)
		client.onGone = h.removeClient
		if !h.addClient(client) {
			log.Debug("shutting down, connection refused", "remote", r.RemoteAddr)
			_ = conn.Close()
			return
		}
		log.Debug("connection accepted", "remote", r.RemoteAddr)

		go func() {
			defer h.wg.Done()
			client.WriteMessage()
		}()
		go func() {
			defer h.wg.Done()
			client.ReadMessage()
		}()
	}
}

// addClient tracks client and reserves its two pumps. It refuses clients
// once CloseAll has started.
func (h *Handler) addClient(client *Client) bool {
	h.Lock()
	defer h.Unlock()

	if h.closing {
		return false
	}
	h.clients[client] = true
	h.wg.Add(2)
	return true
}

func (h *Handler) removeClient(client *Client) {
	h.Lock()
	defer h.Unlock()

	delete(h.clients, client)
}

// Count reports the number of open clients.
func (h *Handler) Count() int {
	h.RLock()
	defer h.RUnlock()

	return len(h.clients)
}

// CloseAll closes every open client, refuses new ones and waits for the
// pumps to exit.
func (h *Handler) CloseAll() {
	h.Lock()
	h.closing = true
	for client := range h.clients {
		client.Close()
	}
	h.Unlock()

	h.wg.Wait()
}

package notify

import (
	"competitor-price-monitor/internal/types"
	"context"
	"encoding/json"
	"github.com/coder/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
	"time"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 32
)

// Hub streams alerts to websocket clients
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

type alertMessage struct {
	Type  string      `json:"type"`
	Alert types.Alert `json:"alert"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dispatch broadcasts the alert. Slow clients miss messages instead of blocking the monitor.
func (h *Hub) Dispatch(_ context.Context, a types.Alert) error {
	data, err := json.Marshal(alertMessage{Type: "alert", Alert: a})
	if err != nil {
		return errors.Wrap(err, "could not encode alert")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Debug("[ws] client too slow, alert dropped")
		}
	}
	return nil
}

// HandleWS upgrades the request and keeps the connection until the client leaves
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Errorf("[ws] accept error: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(client)
	defer h.unregister(client)

	// alerts only flow to the client; reading handles pings and detects close
	ctx := conn.CloseRead(r.Context())
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "bye")
			return
		case data := <-client.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Debugf("[ws] write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

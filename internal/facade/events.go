package facade

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// event is one notification pushed to connected UI clients. It
// supplements, but never replaces, the purely-polled camera.getEvent
// availability check §4.7a requires.
type event struct {
	Type      string `json:"type"`
	Device    string `json:"device,omitempty"`
	Available bool   `json:"available,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	eventPingInterval = 30 * time.Second
	eventPongTimeout  = 10 * time.Second
)

// eventHub fans event notifications out to every connected websocket
// client, in the teacher's ping/reconnect style adapted to the server
// side: here the hub pings, and drops a client once it misses a pong.
type eventHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan event
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*websocket.Conn]chan event)}
}

func (h *eventHub) broadcast(e event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

// HandleEvents upgrades the connection and streams notifications
// until the client disconnects or stops responding to pings.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan event, 16)

	s.hub.mu.Lock()
	s.hub.clients[conn] = ch
	s.hub.mu.Unlock()

	defer func() {
		s.hub.mu.Lock()
		delete(s.hub.clients, conn)
		s.hub.mu.Unlock()
	}()

	conn.SetReadDeadline(time.Now().Add(eventPingInterval + eventPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(eventPingInterval + eventPongTimeout))
		return nil
	})

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-ch:
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

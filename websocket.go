package main

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/genmon-tools/ha-bridge/discovery"
)

// eventStream fans processed-message events out to connected websocket
// clients. It exists for watching the bridge classify a live topic tree;
// slow or dead clients are dropped rather than allowed to block the
// message path.
type eventStream struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newEventStream(log *slog.Logger) *eventStream {
	return &eventStream{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:   log.With("component", "websocket"),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (s *eventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	// Drain (and discard) client frames so close handshakes are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

// Broadcast sends one event to every connected client.
func (s *eventStream) Broadcast(ev discovery.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		if err := conn.WriteJSON(ev); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

func (s *eventStream) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn.Close()
	delete(s.conns, conn)
}

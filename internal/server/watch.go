package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/calebforth/ventureboard/internal/room"
)

const watchWriteTimeout = 5 * time.Second

// watchHub fans out public projections to websocket watchers, one set of
// connections per room.
type watchHub struct {
	mu       sync.Mutex
	watchers map[string]map[*websocket.Conn]bool
	logger   *log.Logger
}

func newWatchHub(logger *log.Logger) *watchHub {
	return &watchHub{
		watchers: make(map[string]map[*websocket.Conn]bool),
		logger:   logger.WithPrefix("watch"),
	}
}

func (h *watchHub) add(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[roomID] == nil {
		h.watchers[roomID] = make(map[*websocket.Conn]bool)
	}
	h.watchers[roomID][conn] = true
}

func (h *watchHub) remove(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[roomID], conn)
	if len(h.watchers[roomID]) == 0 {
		delete(h.watchers, roomID)
	}
}

// broadcast pushes a projection to every watcher of the room. Slow or dead
// connections are dropped rather than blocking the write path.
func (h *watchHub) broadcast(roomID string, projection *room.Room) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.watchers[roomID]))
	for conn := range h.watchers[roomID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
		if err := conn.WriteJSON(projection); err != nil {
			h.logger.Debug("dropping watcher", "room", roomID, "error", err)
			h.remove(roomID, conn)
			_ = conn.Close()
		}
	}
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, conns := range h.watchers {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.watchers, roomID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Remote seats connect from arbitrary origins; the room token is the
		// credential, not the origin.
		return true
	},
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	// Send the current state immediately so watchers do not wait for the
	// next mutation.
	projection, _, err := s.ctl.Fetch(r.Context(), roomID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "room not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
	if err := conn.WriteJSON(projection); err != nil {
		_ = conn.Close()
		return
	}

	s.hub.add(roomID, conn)
	defer func() {
		s.hub.remove(roomID, conn)
		_ = conn.Close()
	}()

	// Watchers only receive; drain control frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

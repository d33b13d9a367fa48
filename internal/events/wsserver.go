package events

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketTap upgrades HTTP connections to websockets and relays every
// Transition published on a Bus to connected observers as JSON. It never
// participates in the facade lock and never blocks Publish.
type WebSocketTap struct {
	bus      *Bus
	upgrader websocket.Upgrader
}

// NewWebSocketTap returns a tap reading from bus. CheckOrigin is left
// permissive, since this is meant as a local debugging endpoint rather
// than something exposed to untrusted origins.
func NewWebSocketTap(bus *Bus) *WebSocketTap {
	return &WebSocketTap{
		bus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams transitions until the
// client disconnects or a write fails.
func (t *WebSocketTap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe := t.bus.Subscribe()
	defer unsubscribe()

	for transition := range ch {
		payload, err := json.Marshal(transition)
		if err != nil {
			log.Printf("events: marshal transition: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

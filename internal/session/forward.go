package session

import (
	"log"

	"github.com/gorilla/websocket"

	"github.com/ayusman/camplay/internal/broadcast"
)

// Forward streams broadcast events for one channel to a websocket client
// until the client disconnects. Events on other channels are dropped.
// Used by the read-only gesture, action and emotion stream endpoints.
func Forward(conn *websocket.Conn, b *broadcast.Broadcaster, channel string) {
	defer conn.Close()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Drain client messages so pings and close frames are processed; the
	// stream itself is one way.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-disconnected:
			return
		case ev, ok := <-sub.C:
			if !ok {
				log.Printf("session: %s stream subscription dropped", channel)
				return
			}
			if ev.Channel != channel {
				continue
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

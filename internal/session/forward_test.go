package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/camplay/internal/broadcast"
)

func dialForwarder(t *testing.T, b *broadcast.Broadcaster, channel string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Forward(conn, b, channel)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestForward_FiltersByChannel(t *testing.T) {
	b := broadcast.New(256)
	conn := dialForwarder(t, b, "gesture")

	// Give the forwarder a moment to subscribe before publishing.
	waitForSubscribers(t, b, 1)

	b.Publish(broadcast.Event{Channel: "action", Stage: "progress_update"})
	b.Publish(broadcast.Event{Channel: "gesture", Stage: "detecting", Message: "rock"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev broadcast.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Channel != "gesture" || ev.Stage != "detecting" {
		t.Errorf("forwarded event = %s/%s, want gesture/detecting", ev.Channel, ev.Stage)
	}
}

func TestForward_UnsubscribesOnDisconnect(t *testing.T) {
	b := broadcast.New(256)
	conn := dialForwarder(t, b, "gesture")
	waitForSubscribers(t, b, 1)

	conn.Close()
	waitForSubscribers(t, b, 0)
}

func waitForSubscribers(t *testing.T, b *broadcast.Broadcaster, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.SubscriberCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("subscriber count never reached %d", want)
}

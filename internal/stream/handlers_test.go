package stream

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func startStreamApp(t *testing.T, hub *Hub) string {
	t.Helper()

	app := fiber.New()
	RegisterRoutes(app.Group("/ws"), hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown() })

	go func() {
		_ = app.Listener(ln)
	}()

	return "ws://" + ln.Addr().String() + "/ws"
}

func watcherCount(h *Hub, jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}

func TestHandlersUpgradeRequired(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/ws"), NewHub())

	req := httptest.NewRequest(http.MethodGet, "/ws/jobs/job-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode == http.StatusOK {
		t.Fatalf("expected non-200 for non-websocket request")
	}
}

func TestHandlersWebsocketBroadcast(t *testing.T) {
	hub := NewHub()
	base := startStreamApp(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/jobs/job-1", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 100 && watcherCount(hub, "job-1") == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast("job-1", []byte(`{"completed":1,"total":3}`))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(msg) != `{"completed":1,"total":3}` {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestHandlersDisconnectUnregistersWatcher(t *testing.T) {
	hub := NewHub()
	base := startStreamApp(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/jobs/job-1", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	for i := 0; i < 100 && watcherCount(hub, "job-1") == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if watcherCount(hub, "job-1") != 1 {
		t.Fatalf("expected 1 watcher, got %d", watcherCount(hub, "job-1"))
	}

	// Close with no further broadcasts in flight; the handler must tear the
	// watcher down on its own rather than wait for the next frame.
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if watcherCount(hub, "job-1") == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("watcher still registered %d after disconnect", watcherCount(hub, "job-1"))
}

func TestHandlersWriteAfterCloseDoesNotBlock(t *testing.T) {
	hub := NewHub()
	base := startStreamApp(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/jobs/job-2", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	conn.Close()

	hub.Broadcast("job-2", []byte("ping"))
	time.Sleep(20 * time.Millisecond)
}

func TestHandlersCloseMessage(t *testing.T) {
	hub := NewHub()
	base := startStreamApp(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(base+"/jobs/job-3", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()

	hub.Broadcast("job-3", []byte("ping"))
	time.Sleep(20 * time.Millisecond)
}

package stream

import "testing"

func TestBroadcastReachesRegisteredClients(t *testing.T) {
	hub := NewHub()
	a := hub.Register("job-1")
	b := hub.Register("job-1")
	other := hub.Register("job-2")

	hub.Broadcast("job-1", []byte("hello"))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			if string(msg) != "hello" {
				t.Errorf("got %q, want hello", msg)
			}
		default:
			t.Error("client did not receive broadcast")
		}
	}

	select {
	case <-other.Send:
		t.Error("client of another job received broadcast")
	default:
	}
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	hub := NewHub()
	client := hub.Register("job-1")

	// Fill the buffer; further broadcasts must not block
	for i := 0; i < cap(client.Send)+10; i++ {
		hub.Broadcast("job-1", []byte("x"))
	}

	if len(client.Send) != cap(client.Send) {
		t.Errorf("expected full buffer, got %d/%d", len(client.Send), cap(client.Send))
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	client := hub.Register("job-1")

	hub.Unregister(client)

	if _, ok := <-client.Send; ok {
		t.Error("Send should be closed after Unregister")
	}

	// Broadcasting to a job with no clients is a no-op
	hub.Broadcast("job-1", []byte("x"))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	client := hub.Register("job-1")
	survivor := hub.Register("job-1")

	// The handler unregisters from the read side and again via defer; the
	// second call must neither panic nor touch other clients.
	hub.Unregister(client)
	hub.Unregister(client)

	hub.Broadcast("job-1", []byte("still here"))
	select {
	case msg := <-survivor.Send:
		if string(msg) != "still here" {
			t.Errorf("got %q, want still here", msg)
		}
	default:
		t.Error("surviving client did not receive broadcast")
	}
}

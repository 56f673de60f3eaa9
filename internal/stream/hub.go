// Package stream pushes routing-progress frames to websocket subscribers.
package stream

import "sync"

// Hub fans progress frames out to the clients watching a routing job.
// Everything is in memory; jobs live and die inside one process.
type Hub struct {
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// Client is one websocket subscriber. Send is closed on Unregister.
type Client struct {
	JobID string
	Send  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[*Client]struct{}{},
	}
}

func (h *Hub) Register(jobID string) *Client {
	client := &Client{
		JobID: jobID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[jobID] == nil {
		h.clients[jobID] = map[*Client]struct{}{}
	}
	h.clients[jobID][client] = struct{}{}
	return client
}

// Unregister removes the client and closes Send. Safe to call more than once;
// only the call that actually removes the client closes the channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	jobClients, ok := h.clients[client.JobID]
	if !ok {
		return
	}
	if _, ok := jobClients[client]; !ok {
		return
	}

	delete(jobClients, client)
	if len(jobClients) == 0 {
		delete(h.clients, client.JobID)
	}
	close(client.Send)
}

// Broadcast delivers payload to every subscriber of jobID. Slow clients are
// skipped rather than blocking the pipeline.
func (h *Hub) Broadcast(jobID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[jobID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

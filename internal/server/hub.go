package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/infra"
)

// SnapshotMessage is pushed to websocket clients for every new snapshot.
type SnapshotMessage struct {
	Type       string                `json:"type"`
	FetchedAt  time.Time             `json:"fetched_at"`
	Currencies []domain.CurrencyView `json:"currencies"`
}

const messageTypeSnapshot = "snapshot"

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

// Hub fans encoded snapshots out to connected clients. Only the Run loop
// touches clients and latest.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	latest []byte

	done     chan struct{}
	stopOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			infra.GlobalMetrics.IncrementClients()
			// send is freshly buffered, this never blocks
			if h.latest != nil {
				client.send <- h.latest
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case message := <-h.broadcast:
			h.latest = message
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					slog.Warn("Dropping slow websocket client")
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	infra.GlobalMetrics.DecrementClients()
}

// Publish encodes snap once and queues it for every client.
func (h *Hub) Publish(snap *domain.Snapshot) {
	if snap == nil {
		return
	}
	data, err := json.Marshal(SnapshotMessage{
		Type:       messageTypeSnapshot,
		FetchedAt:  snap.FetchedAt,
		Currencies: domain.Views(snap.Currencies),
	})
	if err != nil {
		slog.Error("Failed to encode snapshot message", slog.Any("error", err))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		slog.Warn("Broadcast queue full, snapshot skipped")
	}
}

// Stop disconnects all clients and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

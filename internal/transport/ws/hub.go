package ws

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const deliverBufSize = 256

// Hub tracks live connections per user. Only the Run loop touches the
// connection map; everything else talks to it over channels.
type Hub struct {
	// clients maps userID → that user's open connections.
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}

	log *zap.Logger
}

// delivery targets either one connection or every connection of userIDs.
type delivery struct {
	client  *Client
	userIDs []uuid.UUID
	data    []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, deliverBufSize),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub's event loop. It returns once ctx is done, after closing
// every connection's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			return

		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.log.Debug("client connected", zap.Stringer("user_id", client.userID), zap.Int("users", len(h.clients)))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			if d.client != nil {
				if _, ok := h.clients[d.client.userID][d.client]; ok {
					h.push(d.client, d.data)
				}
				continue
			}
			for _, userID := range d.userIDs {
				for c := range h.clients[userID] {
					h.push(c, d.data)
				}
			}
		}
	}
}

func (h *Hub) push(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		// Send queue full, drop the slow client.
		h.log.Warn("dropping slow client", zap.Stringer("user_id", c.userID))
		h.remove(c)
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.Debug("client disconnected", zap.Stringer("user_id", client.userID), zap.Int("users", len(h.clients)))
}

// Register adds a connection. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUsers queues data for every connection of the given users. It
// never blocks; when the queue is full the message is dropped.
func (h *Hub) SendToUsers(userIDs []uuid.UUID, data []byte) {
	h.enqueue(delivery{userIDs: userIDs, data: data})
}

func (h *Hub) sendToClient(c *Client, data []byte) {
	h.enqueue(delivery{client: c, data: data})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.deliver <- d:
	case <-h.done:
	default:
		h.log.Warn("hub delivery queue full, dropping event", zap.Int("recipients", len(d.userIDs)))
	}
}

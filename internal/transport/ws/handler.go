package ws

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vedran77/concorde/internal/domain"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ActorResolver authenticates the token a client connects with.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (domain.Actor, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, resolver ActorResolver, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		actor, err := resolver.Resolve(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.log.Debug("accept failed", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, actor.ID)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}
}

// OriginPatterns turns allowed CORS origins into the host patterns the
// upgrader matches against.
func OriginPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}

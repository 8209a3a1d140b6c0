package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/concorde/internal/domain"
	"github.com/vedran77/concorde/internal/service"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var _ service.Notifier = (*HubNotifier)(nil)

type stubResolver map[string]uuid.UUID

func (s stubResolver) Resolve(_ context.Context, token string) (domain.Actor, error) {
	id, ok := s[token]
	if !ok {
		return domain.Actor{}, errors.New("bad token")
	}
	return domain.NewActor(id), nil
}

func startHub(t *testing.T, tokens stubResolver) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWS(hub, tokens, []string{"*"}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

// dial connects and waits for the hub to have registered the connection.
func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	require.NoError(t, wsjson.Write(ctx, conn, Event{Type: EventTypePing}))
	var pong Event
	require.NoError(t, wsjson.Read(ctx, conn, &pong))
	require.Equal(t, EventTypePong, pong.Type)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var evt Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	return evt
}

func TestServeWSRejectsBadToken(t *testing.T) {
	_, srv := startHub(t, stubResolver{})

	for _, query := range []string{"", "?token=nope"} {
		resp, err := http.Get(srv.URL + "/" + query)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestNotifierDeliversToRecipientsOnly(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	hub, srv := startHub(t, stubResolver{"a": alice, "b": bob, "c": carol})

	aliceConn := dial(t, srv, "a")
	aliceSecond := dial(t, srv, "a")
	bobConn := dial(t, srv, "b")
	carolConn := dial(t, srv, "c")

	n := NewHubNotifier(hub)
	n.Notify([]uuid.UUID{alice, bob}, service.EventFriendAccepted, service.FriendPayload{UserID: carol})

	for _, conn := range []*websocket.Conn{aliceConn, aliceSecond, bobConn} {
		evt := readEvent(t, conn)
		assert.Equal(t, service.EventFriendAccepted, evt.Type)
		assert.JSONEq(t, `{"user_id":"`+carol.String()+`"}`, string(evt.Payload))
	}

	// Carol only sees her own pong, not the friend event.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, carolConn, Event{Type: EventTypePing}))
	assert.Equal(t, EventTypePong, readEvent(t, carolConn).Type)
}

func TestUnknownEventGetsError(t *testing.T) {
	alice := uuid.New()
	_, srv := startHub(t, stubResolver{"a": alice})
	conn := dial(t, srv, "a")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, Event{Type: "shout"}))

	evt := readEvent(t, conn)
	assert.Equal(t, EventTypeError, evt.Type)
	assert.Contains(t, string(evt.Payload), "UNKNOWN_EVENT")
}

func TestSendAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		NewHubNotifier(hub).Notify([]uuid.UUID{uuid.New()}, service.EventServerUpdated, map[string]string{})
		assert.False(t, hub.Register(&Client{hub: hub, userID: uuid.New(), send: make(chan []byte, 1)}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after stop")
	}
}

func TestOriginPatterns(t *testing.T) {
	got := OriginPatterns([]string{"*", "http://localhost:3000", "https://app.example.com", "example.org"})
	assert.Equal(t, []string{"*", "localhost:3000", "app.example.com", "example.org"}, got)
}

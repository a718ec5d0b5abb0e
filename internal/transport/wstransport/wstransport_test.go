package wstransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/ecopulse/pkg/wire"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// serve starts a websocket server that runs fn for each accepted connection.
func serve(t *testing.T, fn func(r *http.Request, ws *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = ws.Close() }()
		fn(r, ws)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, token string) *Conn {
	t.Helper()
	conn, err := New(url, time.Second, zerolog.Nop()).Dial(context.Background(), token)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn.(*Conn)
}

func TestDial_SendsBearerToken(t *testing.T) {
	got := make(chan string, 1)
	url := serve(t, func(r *http.Request, ws *websocket.Conn) {
		got <- r.Header.Get("Authorization")
		_, _, _ = ws.ReadMessage()
	})

	dial(t, url, "s3cret")

	select {
	case header := <-got:
		assert.Equal(t, "Bearer s3cret", header)
	case <-time.After(time.Second):
		t.Fatal("server never saw the handshake")
	}
}

func TestDial_Unauthorized(t *testing.T) {
	url := serve(t, func(*http.Request, *websocket.Conn) {})

	_, err := New(url, time.Second, zerolog.Nop()).Dial(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDial_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := New(url, time.Second, zerolog.Nop()).Dial(context.Background(), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestConn_RoundTrip(t *testing.T) {
	url := serve(t, func(_ *http.Request, ws *websocket.Conn) {
		var f wire.Frame
		if err := ws.ReadJSON(&f); err != nil {
			return
		}
		ack, _ := wire.Ack(f.ID, map[string]string{"event": f.Event})
		_ = ws.WriteJSON(ack)
		_, _, _ = ws.ReadMessage()
	})

	conn := dial(t, url, "")
	require.NoError(t, conn.WriteFrame(wire.Frame{Type: wire.TypeEmit, ID: 7, Event: "request:list"}))

	f, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, wire.TypeAck, f.Type)
	assert.Equal(t, uint64(7), f.ID)
	assert.JSONEq(t, `{"event":"request:list"}`, string(f.Data))
}

func TestConn_SkipsMalformedFrames(t *testing.T) {
	url := serve(t, func(_ *http.Request, ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"event"}`))
		ev, _ := wire.Event("request:created", map[string]string{"id": "REQ-1"})
		_ = ws.WriteJSON(ev)
		_, _, _ = ws.ReadMessage()
	})

	conn := dial(t, url, "")
	f, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "request:created", f.Event)
}

func TestConn_ServerNormalClose(t *testing.T) {
	url := serve(t, func(_ *http.Request, ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	conn := dial(t, url, "")
	_, err := conn.ReadFrame()
	assert.ErrorIs(t, err, wire.ErrServerClosed)
}

func TestConn_ServerGoingAwayIsNotServerClose(t *testing.T) {
	url := serve(t, func(_ *http.Request, ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "restarting")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	conn := dial(t, url, "")
	_, err := conn.ReadFrame()
	require.Error(t, err)
	assert.False(t, errors.Is(err, wire.ErrServerClosed))
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	url := serve(t, func(_ *http.Request, ws *websocket.Conn) {
		_, _, _ = ws.ReadMessage()
	})

	conn := dial(t, url, "")
	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}

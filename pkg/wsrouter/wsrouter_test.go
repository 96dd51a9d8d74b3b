package wsrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetInput struct {
	Name string `json:"name"`
}

func serve(t *testing.T, r *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		conn := NewConn(ws)
		defer conn.Close()
		r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestRouting(t *testing.T) {
	r := New()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *Conn, payload any) error {
			record("mw:" + GetMessageTypeFromCtx(ctx))
			return next(ctx, conn, payload)
		}
	})

	Handle(r, "greet", func(ctx context.Context, conn *Conn, input greetInput) error {
		record("greet")
		return conn.WriteJSON(map[string]string{"hello": input.Name})
	})
	Handle(r, "fail", func(ctx context.Context, conn *Conn, _ struct{}) error {
		return errors.New("boom")
	})
	r.OnError(func(ctx context.Context, conn *Conn, err error) {
		conn.WriteJSON(map[string]string{"error": err.Error()})
	})

	assert.ElementsMatch(t, []string{"greet", "fail"}, r.Routes())

	client := serve(t, r)
	client.SetReadDeadline(time.Now().Add(time.Second))

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"greet","payload":{"name":"bob"}}`)))
	var reply map[string]string
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "bob", reply["hello"])
	mu.Lock()
	assert.Equal(t, []string{"mw:greet", "greet"}, order)
	mu.Unlock()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"fail"}`)))
	require.NoError(t, client.ReadJSON(&reply))
	assert.Equal(t, "boom", reply["error"])

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope","payload":{}}`)))
	require.NoError(t, client.ReadJSON(&reply))
	assert.Contains(t, reply["error"], ErrUnknownMessageType.Error())
}

// serveErr is serve that also reports what ServeConn returned.
func serveErr(t *testing.T, r *WSRouter) (*websocket.Conn, <-chan error) {
	t.Helper()

	errs := make(chan error, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		conn := NewConn(ws)
		defer conn.Close()
		errs <- r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, errs
}

func TestSilentPeerIsDropped(t *testing.T) {
	r := New()
	r.SetPongWait(100 * time.Millisecond)

	// never reads, so pings go unanswered
	_, errs := serveErr(t, r)

	select {
	case err := <-errs:
		var netErr interface{ Timeout() bool }
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.Timeout())
	case <-time.After(5 * time.Second):
		t.Fatal("silent connection was not dropped")
	}
}

func TestPongsKeepConnectionOpen(t *testing.T) {
	r := New()
	r.SetPongWait(100 * time.Millisecond)

	var pings atomic.Int32
	client, errs := serveErr(t, r)
	client.SetPingHandler(func(data string) error {
		pings.Add(1)
		return client.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	time.Sleep(500 * time.Millisecond)
	select {
	case err := <-errs:
		t.Fatalf("connection dropped: %v", err)
	default:
	}
	assert.Greater(t, pings.Load(), int32(1))

	client.Close()
	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("closed connection was not noticed")
	}
}

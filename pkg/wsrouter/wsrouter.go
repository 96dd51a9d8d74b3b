package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidMessage     = errors.New("invalid message")
)

const (
	writeWait = 10 * time.Second
	// DefaultPongWait is how long ServeConn waits for a frame from the peer
	// before giving up on the connection.
	DefaultPongWait = 60 * time.Second
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Conn serializes writes to one websocket connection. Any goroutine may
// write, only ServeConn reads.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.WriteMessage(data)
}

// CloseWithCode sends a close frame and closes the connection.
func (c *Conn) CloseWithCode(code int, text string) error {
	c.mu.Lock()
	c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	c.mu.Unlock()

	return c.ws.Close()
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// ping sends a ping every period until done is closed or a ping fails.
func (c *Conn) ping(period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

type HandlerFunc[T any] func(ctx context.Context, conn *Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler is called with every error a handler returns. The connection
// stays open.
type ErrorHandler func(ctx context.Context, conn *Conn, err error)

type route struct {
	decode  func(json.RawMessage) (any, error)
	handler HandlerFunc[any]
}

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
	onError     ErrorHandler
	pongWait    time.Duration
}

func New() *WSRouter {
	return &WSRouter{
		routes:   make(map[string]route),
		onError:  func(context.Context, *Conn, error) {},
		pongWait: DefaultPongWait,
	}
}

func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.onError = h
}

// SetPongWait changes how long a connection may stay silent. Pings are sent
// at nine tenths of d. Zero turns the keepalive off.
func (r *WSRouter) SetPongWait(d time.Duration) {
	r.pongWait = d
}

// Handle registers handler for messageType. The payload is decoded into a
// fresh T for every message.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) == 0 || string(raw) == "null" {
				return payload, nil
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
		handler: func(ctx context.Context, conn *Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		},
	}
}

// Routes returns every registered message type.
func (r *WSRouter) Routes() []string {
	types := make([]string, 0, len(r.routes))
	for t := range r.routes {
		types = append(types, t)
	}

	return types
}

// ServeConn reads messages until the connection fails and routes each one.
// A peer that answers neither pings nor sends anything within the pong wait
// is dropped.
func (r *WSRouter) ServeConn(ctx context.Context, conn *Conn) error {
	pongWait := r.pongWait
	if pongWait > 0 {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		conn.ws.SetPongHandler(func(string) error {
			return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		})

		done := make(chan struct{})
		defer close(done)
		go conn.ping(pongWait*9/10, done)
	}

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return err
		}
		if pongWait > 0 {
			conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.onError(ctx, conn, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
			continue
		}

		rt, ok := r.routes[msg.Type]
		if !ok {
			r.onError(ctx, conn, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
			continue
		}

		payload, err := rt.decode(msg.Payload)
		if err != nil {
			r.onError(ctx, conn, fmt.Errorf("%w: %s payload: %w", ErrInvalidMessage, msg.Type, err))
			continue
		}

		handler := rt.handler
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			handler = r.middlewares[i](handler)
		}

		if err := handler(context.WithValue(ctx, messageTypeKey, msg.Type), conn, payload); err != nil {
			r.onError(ctx, conn, err)
		}
	}
}

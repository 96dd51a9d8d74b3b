// Package channel wraps the room scoped websocket connection and exposes
// typed send and receive of room events.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
)

var ErrNotConnected = errors.New("channel is not connected")

const (
	inboxSize        = 64
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second

	DefaultPongWait = 60 * time.Second
)

type Config struct {
	// URL is the websocket endpoint rooms are joined under, the room id is
	// appended as the last path segment.
	URL       string
	Name      string
	AuthToken string
	// PongWait is how long the connection may stay silent before it is
	// considered lost. Zero means DefaultPongWait.
	PongWait time.Duration
}

type Handler func(event.Inbound)

type Channel struct {
	roomId   string
	conn     *websocket.Conn
	pongWait time.Duration
	logger   *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[event.Name]map[uint64]Handler
	nextId   uint64

	inbox      chan event.Inbound
	done       chan struct{}
	listenOnce sync.Once
	closeOnce  sync.Once
	err        error
}

func JoinURL(cfg *Config, roomId string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(cfg.URL, "/") + "/" + url.PathEscape(roomId))
	if err != nil {
		return "", fmt.Errorf("failed to parse channel url: %w", err)
	}

	query := u.Query()
	if cfg.Name != "" {
		query.Set("name", cfg.Name)
	}
	if cfg.AuthToken != "" {
		query.Set("auth-token", cfg.AuthToken)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// Dial opens the single live connection for roomId. Room ids shorter than
// domain.RoomIdMinLength are rejected before contacting the server. Nothing
// is read until Listen is called.
func Dial(ctx context.Context, cfg *Config, roomId string, logger *slog.Logger) (*Channel, error) {
	if len(roomId) < domain.RoomIdMinLength {
		return nil, domain.ErrInvalidRoomId
	}

	joinURL, err := JoinURL(cfg, roomId)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, joinURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial room %s: %s: %w", roomId, resp.Status, err)
		}
		return nil, fmt.Errorf("failed to dial room %s: %w", roomId, err)
	}

	pongWait := cfg.PongWait
	if pongWait <= 0 {
		pongWait = DefaultPongWait
	}

	c := &Channel{
		roomId:   roomId,
		conn:     conn,
		pongWait: pongWait,
		logger:   logger.With("room_id", roomId),
		handlers: make(map[event.Name]map[uint64]Handler),
		inbox:    make(chan event.Inbound, inboxSize),
		done:     make(chan struct{}),
	}

	return c, nil
}

// Listen starts delivering inbound events. Handlers registered with On
// before Listen see the snapshot the server sends on join.
func (c *Channel) Listen() {
	c.listenOnce.Do(func() {
		go c.readLoop()
		go c.dispatchLoop()
		go c.pingLoop()
	})
}

func (c *Channel) RoomId() string {
	return c.roomId
}

// Done is closed once the connection is torn down.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended, nil after Disconnect.
func (c *Channel) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Channel) Connected() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Send writes ev once. Failed sends are not retried.
func (c *Channel) Send(ev event.Outbound) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	data, err := event.Encode(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Info("failed to send event", "event", ev.EventName(), "error", err)
		return fmt.Errorf("failed to send %s: %w", ev.EventName(), err)
	}

	c.logger.Debug("event sent", "event", ev.EventName())
	return nil
}

type Subscription struct {
	c    *Channel
	name event.Name
	id   uint64
}

// On registers h for inbound events named name. Handlers run one at a time
// on the dispatch goroutine, in arrival order.
func (c *Channel) On(name event.Name, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextId++
	if c.handlers[name] == nil {
		c.handlers[name] = make(map[uint64]Handler)
	}
	c.handlers[name][c.nextId] = h

	return &Subscription{c: c, name: name, id: c.nextId}
}

func (s *Subscription) Unsubscribe() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	delete(s.c.handlers[s.name], s.id)
}

// Disconnect unsubscribes every handler and closes the connection.
func (c *Channel) Disconnect() error {
	c.mu.Lock()
	c.handlers = make(map[event.Name]map[uint64]Handler)
	c.mu.Unlock()

	c.writeMu.Lock()
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	c.shutdown(nil)
	c.listenOnce.Do(func() { close(c.inbox) })
	return nil
}

func (c *Channel) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		c.conn.Close()
		close(c.done)
	})
}

func (c *Channel) extendDeadline() error {
	return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
}

func (c *Channel) readLoop() {
	defer close(c.inbox)

	c.conn.SetPongHandler(func(string) error {
		return c.extendDeadline()
	})
	c.conn.SetPingHandler(func(data string) error {
		c.extendDeadline()
		err := c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		// a slow dispatcher must not eat into the wait
		c.extendDeadline()

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.shutdown(nil)
			} else {
				c.shutdown(err)
			}
			c.logger.Debug("read loop stopped", "error", err)
			return
		}

		ev, err := event.DecodeInbound(data)
		if err != nil {
			c.logger.Info("failed to decode event", "error", err)
			continue
		}

		select {
		case c.inbox <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Channel) pingLoop() {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("failed to ping", "error", err)
				return
			}
		}
	}
}

func (c *Channel) dispatchLoop() {
	for ev := range c.inbox {
		for _, h := range c.handlersFor(ev.EventName()) {
			h(ev)
		}
	}
}

func (c *Channel) handlersFor(name event.Name) []Handler {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.handlers[name]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, subs[id])
	}

	return handlers
}

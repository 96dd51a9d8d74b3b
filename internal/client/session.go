// Package client ties the channel, store, playback controller and playlist
// dispatcher of one room member together.
package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sharetube/syncroom/internal/client/channel"
	"github.com/sharetube/syncroom/internal/client/playback"
	"github.com/sharetube/syncroom/internal/client/playlist"
	"github.com/sharetube/syncroom/internal/client/store"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/internal/resolver"
)

type Config struct {
	Channel  channel.Config
	Resolver resolver.Config
	Playback playback.Config
}

type Session struct {
	cfg      Config
	roomId   string
	store    *store.Store
	playback *playback.Controller
	playlist *playlist.Dispatcher
	resolver *resolver.Resolver
	logger   *slog.Logger

	mu        sync.Mutex
	ch        *channel.Channel
	authToken string
	closed    bool
}

// Join connects to roomId and starts applying room events. player may be
// nil for a participant without a media element.
func Join(ctx context.Context, cfg *Config, roomId string, player playback.Player, logger *slog.Logger) (*Session, error) {
	if player == nil {
		player = nopPlayer{}
	}

	s := &Session{
		cfg:       *cfg,
		roomId:    roomId,
		store:     store.New(logger),
		resolver:  resolver.New(&cfg.Resolver, logger),
		logger:    logger.With("room_id", roomId),
		authToken: cfg.Channel.AuthToken,
	}
	s.playback = playback.New(&cfg.Playback, roomId, player, s, s.store, logger)
	s.playlist = playlist.New(roomId, s, func() { s.store.SetSearchResults(nil) }, logger)

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) connect(ctx context.Context) error {
	cfg := s.cfg.Channel
	s.mu.Lock()
	cfg.AuthToken = s.authToken
	s.mu.Unlock()

	ch, err := channel.Dial(ctx, &cfg, s.roomId, s.logger)
	if err != nil {
		return err
	}

	for _, name := range event.InboundNames {
		ch.On(name, s.handle)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ch.Disconnect()
		return channel.ErrNotConnected
	}
	s.ch = ch
	s.mu.Unlock()

	ch.Listen()
	go s.watch(ch)
	return nil
}

func (s *Session) watch(ch *channel.Channel) {
	<-ch.Done()

	s.mu.Lock()
	current := s.ch == ch && !s.closed
	s.mu.Unlock()

	if current {
		s.logger.Info("connection lost", "error", ch.Err())
		s.playback.Close()
		s.store.MarkDisconnected()
	}
}

func (s *Session) handle(ev event.Inbound) {
	if snapshot, ok := ev.(event.AllRoomData); ok && snapshot.AuthToken != "" {
		s.mu.Lock()
		s.authToken = snapshot.AuthToken
		s.mu.Unlock()
	}

	state := s.store.Dispatch(ev)
	if state.Status != store.StatusJoined {
		return
	}

	switch ev.EventName() {
	case event.NameStartVideo, event.NameStopVideo, event.NamePlaybackRateChange:
		s.playback.Handle(ev)
	}
}

// Reconnect dials the room again after a lost connection. The auth token
// from the last snapshot keeps the same user id.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	old := s.ch
	s.mu.Unlock()

	if old != nil && old.Connected() {
		return nil
	}

	return s.connect(ctx)
}

// Send implements the sender used by the playback controller and playlist
// dispatcher.
func (s *Session) Send(ev event.Outbound) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	if ch == nil {
		return channel.ErrNotConnected
	}

	return ch.Send(ev)
}

func (s *Session) State() store.State {
	return s.store.State()
}

func (s *Session) Subscribe(l store.Listener) (unsubscribe func()) {
	return s.store.Subscribe(l)
}

func (s *Session) Playback() *playback.Controller {
	return s.playback
}

func (s *Session) Playlist() *playlist.Dispatcher {
	return s.playlist
}

// Search resolves url into search results. Failures end up in the error
// banner, results arriving after Close are dropped.
func (s *Session) Search(ctx context.Context, url string) ([]domain.VideoData, error) {
	s.store.SetFetching(true)
	videos, err := s.resolver.Resolve(ctx, resolver.Input{URL: url})

	if s.isClosed() {
		return nil, channel.ErrNotConnected
	}

	if err != nil {
		s.logger.InfoContext(ctx, "search failed", "url", url, "error", err)
		s.store.SetError(resolver.Message(err))
	} else {
		s.store.SetSearchResults(videos)
	}
	s.store.SetFetching(false)

	return videos, err
}

func (s *Session) DismissError() {
	s.store.DismissError()
}

func (s *Session) ClearSearchResults() {
	s.store.SetSearchResults(nil)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close leaves the room. The session cannot be reused.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ch := s.ch
	s.mu.Unlock()

	s.playback.Close()
	if ch == nil {
		return nil
	}

	return ch.Disconnect()
}

type nopPlayer struct{}

func (nopPlayer) SeekTo(float64)          {}
func (nopPlayer) Duration() float64       { return 0 }
func (nopPlayer) SetPlaying(bool)         {}
func (nopPlayer) SetPlaybackRate(float64) {}

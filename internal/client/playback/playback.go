// Package playback keeps a local player in step with the room. Only the
// room owner reports progress and rate, any member may start and stop.
package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/syncroom/internal/client/channel"
	"github.com/sharetube/syncroom/internal/client/store"
	"github.com/sharetube/syncroom/internal/event"
)

const DefaultSettleDelay = 100 * time.Millisecond

var ErrNothingPlaying = errors.New("nothing is playing")

// Player is the local media element.
type Player interface {
	SeekTo(seconds float64)
	Duration() float64
	SetPlaying(playing bool)
	SetPlaybackRate(rate float64)
}

type Sender interface {
	Send(ev event.Outbound) error
}

type Config struct {
	// SettleDelay is how long the player gets to finish a seek before
	// playback resumes.
	SettleDelay time.Duration
}

type stopper interface {
	Stop() bool
}

type Controller struct {
	roomId      string
	player      Player
	sender      Sender
	store       *store.Store
	settleDelay time.Duration
	afterFunc   func(d time.Duration, f func()) stopper
	logger      *slog.Logger

	mu      sync.Mutex
	pending stopper
}

func New(cfg *Config, roomId string, player Player, sender Sender, st *store.Store, logger *slog.Logger) *Controller {
	settleDelay := cfg.SettleDelay
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}

	return &Controller{
		roomId:      roomId,
		player:      player,
		sender:      sender,
		store:       st,
		settleDelay: settleDelay,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		logger: logger.With("room_id", roomId),
	}
}

func (c *Controller) send(ev event.Outbound) error {
	if c.sender == nil || c.roomId == "" {
		return channel.ErrNotConnected
	}

	return c.sender.Send(ev)
}

// OnPlay asks the room to start. Nothing is sent while already playing.
func (c *Controller) OnPlay() error {
	if c.store.State().Local.VideoPlaying {
		return nil
	}

	return c.send(event.StartVideo{RoomId: c.roomId})
}

func (c *Controller) OnStart() error {
	return c.OnPlay()
}

func (c *Controller) OnPause() error {
	if !c.store.State().Local.VideoPlaying {
		return nil
	}

	return c.send(event.StopVideo{RoomId: c.roomId})
}

func (c *Controller) OnBuffer() error {
	return c.OnPause()
}

// OnProgress reports the played fraction. Ignored unless the local user is
// the authority.
func (c *Controller) OnProgress(fraction float64) error {
	if fraction <= 0 || !c.store.State().IsAuthority() {
		return nil
	}

	return c.send(event.ReportProgress{RoomId: c.roomId, VideoProgress: fraction})
}

func (c *Controller) OnPlaybackRateChange(rate float64) error {
	if rate <= 0 || !c.store.State().IsAuthority() {
		return nil
	}

	return c.send(event.ChangePlaybackRate{RoomId: c.roomId, PlaybackRate: rate})
}

// OnEnded reports the now playing entry as finished.
func (c *Controller) OnEnded() error {
	video, ok := c.store.State().RoomData.NowPlaying()
	if !ok {
		return ErrNothingPlaying
	}

	return c.send(event.EndVideo{RoomId: c.roomId, Video: video})
}

// Handle applies the player side effect of a remote playback event. The
// store is expected to have seen ev already.
func (c *Controller) Handle(ev event.Inbound) {
	switch e := ev.(type) {
	case event.VideoStarted:
		c.start(e.VideoProgress)
	case event.VideoStopped:
		c.cancelPending()
		c.store.SetVideoPlaying(false)
		c.player.SetPlaying(false)
	case event.PlaybackRateChanged:
		if e.PlaybackRate > 0 {
			c.player.SetPlaybackRate(e.PlaybackRate)
		}
	}
}

func (c *Controller) start(progress float64) {
	seconds := progress * c.player.Duration()
	c.logger.Debug("seeking before start", "progress", progress, "seconds", seconds)
	c.player.SeekTo(seconds)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.pending.Stop()
	}
	c.pending = c.afterFunc(c.settleDelay, func() {
		c.store.SetVideoPlaying(true)
		c.player.SetPlaying(true)
	})
}

func (c *Controller) cancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// Close drops a pending start.
func (c *Controller) Close() {
	c.cancelPending()
}

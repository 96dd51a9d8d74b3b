package playback

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/syncroom/internal/client/channel"
	"github.com/sharetube/syncroom/internal/client/store"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	duration float64
	calls    []string
	seekedTo float64
	playing  bool
	rate     float64
}

func (p *fakePlayer) SeekTo(seconds float64) {
	p.calls = append(p.calls, "seek")
	p.seekedTo = seconds
}

func (p *fakePlayer) Duration() float64 { return p.duration }

func (p *fakePlayer) SetPlaying(playing bool) {
	if playing {
		p.calls = append(p.calls, "play")
	} else {
		p.calls = append(p.calls, "pause")
	}
	p.playing = playing
}

func (p *fakePlayer) SetPlaybackRate(rate float64) { p.rate = rate }

type fakeSender struct {
	mu   sync.Mutex
	sent []event.Outbound
}

func (s *fakeSender) Send(ev event.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ev)
	return nil
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

func (t *manualTimer) fire() {
	if !t.stopped {
		t.f()
	}
}

func newJoinedStore(localId string) *store.Store {
	st := store.New(slog.Default())
	st.Dispatch(event.AllRoomData{
		UserData: domain.UserData{Id: localId, Name: localId},
		RoomData: domain.RoomData{
			OwnerId: "u1",
			Id:      "room-42",
			UserList: []domain.UserData{
				{Id: "u1", Name: "u1"},
				{Id: "u2", Name: "u2"},
			},
			VideoList: []domain.VideoData{
				{Host: domain.HostYoutube, Id: "abc123"},
				{Host: domain.HostVimeo, Id: "76979871"},
			},
		},
	})
	return st
}

type harness struct {
	c      *Controller
	player *fakePlayer
	sender *fakeSender
	store  *store.Store
	timers []*manualTimer
	delays []time.Duration
}

func newHarness(localId string) *harness {
	h := &harness{
		player: &fakePlayer{duration: 200},
		sender: &fakeSender{},
		store:  newJoinedStore(localId),
	}
	h.c = New(&Config{}, "room-42", h.player, h.sender, h.store, slog.Default())
	h.c.afterFunc = func(d time.Duration, f func()) stopper {
		t := &manualTimer{f: f}
		h.timers = append(h.timers, t)
		h.delays = append(h.delays, d)
		return t
	}
	return h
}

func TestProgressIsGatedOnAuthority(t *testing.T) {
	h := newHarness("u2")

	require.NoError(t, h.c.OnProgress(0.4))
	require.NoError(t, h.c.OnPlaybackRateChange(2))
	assert.Empty(t, h.sender.sent)

	owner := newHarness("u1")
	require.NoError(t, owner.c.OnProgress(0.4))
	require.NoError(t, owner.c.OnProgress(0))
	require.NoError(t, owner.c.OnPlaybackRateChange(2))
	assert.Equal(t, []event.Outbound{
		event.ReportProgress{RoomId: "room-42", VideoProgress: 0.4},
		event.ChangePlaybackRate{RoomId: "room-42", PlaybackRate: 2},
	}, owner.sender.sent)
}

func TestRemoteStartSeeksBeforePlaying(t *testing.T) {
	h := newHarness("u2")

	h.store.Dispatch(event.VideoStarted{VideoProgress: 0.5})
	h.c.Handle(event.VideoStarted{VideoProgress: 0.5})

	assert.Equal(t, 100.0, h.player.seekedTo)
	assert.Equal(t, []string{"seek"}, h.player.calls)
	assert.False(t, h.store.State().Local.VideoPlaying)

	require.Len(t, h.timers, 1)
	assert.Equal(t, DefaultSettleDelay, h.delays[0])
	h.timers[0].fire()

	assert.Equal(t, []string{"seek", "play"}, h.player.calls)
	assert.True(t, h.store.State().Local.VideoPlaying)
}

func TestRemoteStopCancelsPendingStart(t *testing.T) {
	h := newHarness("u2")

	h.c.Handle(event.VideoStarted{VideoProgress: 0.1})
	h.store.Dispatch(event.VideoStopped{})
	h.c.Handle(event.VideoStopped{})

	require.Len(t, h.timers, 1)
	h.timers[0].fire()

	assert.False(t, h.store.State().Local.VideoPlaying)
	assert.False(t, h.player.playing)
}

func TestPlayAndPauseOnlyOnTransitions(t *testing.T) {
	h := newHarness("u2")

	require.NoError(t, h.c.OnPause())
	assert.Empty(t, h.sender.sent)

	require.NoError(t, h.c.OnPlay())
	assert.Equal(t, []event.Outbound{event.StartVideo{RoomId: "room-42"}}, h.sender.sent)

	h.store.SetVideoPlaying(true)
	require.NoError(t, h.c.OnStart())
	require.NoError(t, h.c.OnBuffer())
	assert.Equal(t, []event.Outbound{
		event.StartVideo{RoomId: "room-42"},
		event.StopVideo{RoomId: "room-42"},
	}, h.sender.sent)
}

func TestEndedReportsNowPlaying(t *testing.T) {
	h := newHarness("u2")

	require.NoError(t, h.c.OnEnded())
	assert.Equal(t, []event.Outbound{
		event.EndVideo{RoomId: "room-42", Video: domain.VideoData{Host: domain.HostYoutube, Id: "abc123"}},
	}, h.sender.sent)

	h.store.Dispatch(event.VideoEnded{VideoList: []domain.VideoData{}})
	assert.ErrorIs(t, h.c.OnEnded(), ErrNothingPlaying)
}

func TestRemoteRate(t *testing.T) {
	h := newHarness("u2")

	h.c.Handle(event.PlaybackRateChanged{PlaybackRate: 1.25})
	assert.Equal(t, 1.25, h.player.rate)
}

func TestSendWithoutChannel(t *testing.T) {
	st := newJoinedStore("u1")
	c := New(&Config{}, "room-42", &fakePlayer{}, nil, st, slog.Default())

	assert.ErrorIs(t, c.OnPlay(), channel.ErrNotConnected)
}

package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/syncroom/internal/client"
	"github.com/sharetube/syncroom/internal/client/channel"
	"github.com/sharetube/syncroom/internal/client/store"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func testConfig() *AppConfig {
	return &AppConfig{
		Secret:        "secret",
		LogLevel:      "debug",
		UsersLimit:    9,
		PlaylistLimit: 25,
		MessagesLimit: 50,
		RoomExp:       time.Hour,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.Secret = ""
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.UsersLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.RoomExp = 0
	assert.Error(t, cfg.Validate())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ready := make(chan struct{})
	var once sync.Once
	handler := newHandler(ctx, testConfig(), rc, slog.Default(), func() { once.Do(func() { close(ready) }) })
	select {
	case <-ready:
	case <-time.After(waitFor):
		t.Fatal("subscription not ready")
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.HandleFunc("/streams/live.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func join(t *testing.T, srv *httptest.Server, name string) *client.Session {
	t.Helper()
	session, err := client.Join(context.Background(), &client.Config{
		Channel: channel.Config{
			URL:  "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/rooms",
			Name: name,
		},
		Resolver: resolver.Config{BaseURL: srv.URL},
	}, "room-42", nil, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	require.Eventually(t, func() bool {
		return session.State().Status == store.StatusJoined
	}, waitFor, tick)

	return session
}

func TestTwoMembersShareRoom(t *testing.T) {
	srv := newTestServer(t)

	alice := join(t, srv, "alice")
	bob := join(t, srv, "bob")

	assert.True(t, alice.State().IsAuthority())
	assert.False(t, bob.State().IsAuthority())
	require.Eventually(t, func() bool {
		return len(alice.State().RoomData.UserList) == 2
	}, waitFor, tick)

	streamURL := srv.URL + "/streams/live.m3u8"
	results, err := alice.Search(context.Background(), streamURL)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.HostM3U8, results[0].Host)
	assert.Equal(t, results, alice.State().Local.SearchResults)

	require.NoError(t, alice.Playlist().Add(results[0]))
	for _, s := range []*client.Session{alice, bob} {
		require.Eventually(t, func() bool {
			list := s.State().RoomData.VideoList
			return len(list) == 1 && list[0].Id == streamURL
		}, waitFor, tick)
	}
	assert.Empty(t, alice.State().Local.SearchResults)

	require.NoError(t, bob.Playback().OnPlay())
	for _, s := range []*client.Session{alice, bob} {
		require.Eventually(t, func() bool {
			return s.State().Local.VideoPlaying
		}, waitFor, tick)
	}

	require.NoError(t, bob.Playlist().SendMessage("hello"))
	require.Eventually(t, func() bool {
		messages := alice.State().RoomData.MessageList
		return len(messages) == 1 && messages[0].User.Name == "bob"
	}, waitFor, tick)

	require.NoError(t, bob.Close())
	require.Eventually(t, func() bool {
		return len(alice.State().RoomData.UserList) == 1
	}, waitFor, tick)
}

func TestSearchUnknownHost(t *testing.T) {
	srv := newTestServer(t)
	alice := join(t, srv, "alice")

	_, err := alice.Search(context.Background(), "https://dailymotion.com/video/x1")
	assert.ErrorIs(t, err, domain.ErrUnsupportedHost)
	assert.NotEmpty(t, alice.State().Local.Error)
}

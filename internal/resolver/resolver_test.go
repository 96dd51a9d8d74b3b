package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sharetube/syncroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoId(t *testing.T) {
	tests := []struct {
		name string
		host domain.Host
		url  string
		want string
	}{
		{"short link with share suffix", domain.HostYoutube, "https://youtu.be/abc123?si=xyz", "abc123"},
		{"watch with playlist", domain.HostYoutube, "https://www.youtube.com/watch?v=abc123&list=PL1", "abc123"},
		{"live", domain.HostYoutube, "https://www.youtube.com/live/abc123/", "abc123"},
		{"watch with timestamp", domain.HostYoutube, "https://www.youtube.com/watch?v=abc123&t=42", "abc123"},
		{"playlist", domain.HostYoutubePlaylist, "https://www.youtube.com/playlist?list=PL1&si=x", "PL1"},
		{"twitch channel", domain.HostTwitch, "https://www.twitch.tv/somestreamer/", "somestreamer"},
		{"twitch vod", domain.HostTwitchVOD, "https://www.twitch.tv/videos/998877", "998877"},
		{"vimeo", domain.HostVimeo, "https://vimeo.com/76979871", "76979871"},
		{"m3u8", domain.HostM3U8, "https://cdn.example.com/live/index.m3u8", "https://cdn.example.com/live/index.m3u8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ExtractVideoId(tt.host, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestExtractVideoIdInvalid(t *testing.T) {
	_, err := ExtractVideoId(domain.HostYoutube, "https://www.youtube.com/")
	assert.ErrorIs(t, err, domain.ErrInvalidId)

	_, err = ExtractVideoId(domain.HostTwitchVOD, "https://www.twitch.tv/videos/")
	assert.ErrorIs(t, err, domain.ErrInvalidId)

	_, err = ExtractVideoId(domain.Host("dailymotion"), "https://dailymotion.com/x")
	assert.ErrorIs(t, err, domain.ErrUnsupportedHost)
}

func TestExtractHostName(t *testing.T) {
	tests := []struct {
		url  string
		want domain.Host
	}{
		{"https://www.youtube.com/watch?v=abc123", domain.HostYoutube},
		{"https://youtu.be/abc123", domain.HostYoutube},
		{"https://www.youtube.com/watch?v=abc123&list=PL1", domain.HostYoutube},
		{"https://www.youtube.com/playlist?list=PL1", domain.HostYoutubePlaylist},
		{"https://www.twitch.tv/somestreamer", domain.HostTwitch},
		{"https://www.twitch.tv/videos/998877", domain.HostTwitchVOD},
		{"https://vimeo.com/76979871", domain.HostVimeo},
		{"https://cdn.example.com/index.m3u8", domain.HostM3U8},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			host, err := ExtractHostName(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, host)
		})
	}

	_, err := ExtractHostName("https://notyoutubeish.example.com/v")
	assert.ErrorIs(t, err, domain.ErrUnsupportedHost)
}

func newTestResolver(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(&Config{BaseURL: srv.URL, Timeout: timeout}, slog.Default())
}

func TestResolve(t *testing.T) {
	var calls atomic.Int32
	title := "Some video"
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/twitch-vod", req.URL.Path)
		assert.Equal(t, "998877", req.URL.Query().Get("id"))
		json.NewEncoder(w).Encode([]domain.VideoData{{
			Host:        domain.HostTwitchVOD,
			Id:          "998877",
			URL:         "https://www.twitch.tv/videos/998877",
			Title:       &title,
			ChannelName: "streamer",
		}})
	}, time.Second)

	videos, err := r.Resolve(context.Background(), Input{URL: "https://www.twitch.tv/videos/998877"})
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, domain.HostTwitchVOD, videos[0].Host)
	assert.Equal(t, "998877", videos[0].Id)
	assert.Equal(t, int32(1), calls.Load(), "exactly one lookup per resolution")
}

func TestResolveExplicitPair(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/vimeo", req.URL.Path)
		json.NewEncoder(w).Encode([]domain.VideoData{{Host: domain.HostVimeo, Id: "1"}})
	}, time.Second)

	videos, err := r.Resolve(context.Background(), Input{Host: domain.HostVimeo, Id: "1"})
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestResolveErrors(t *testing.T) {
	t.Run("upstream error propagates status and message", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Unknown server error"}`))
		}, time.Second)

		_, err := r.Resolve(context.Background(), Input{URL: "https://youtu.be/abc123"})
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

		var upstreamErr *domain.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, http.StatusInternalServerError, upstreamErr.Status)
		assert.Equal(t, "Unknown server error", upstreamErr.Message)
		assert.Equal(t, "Unknown server error", Message(err))
	})

	t.Run("404 is not found", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"No videos found"}`))
		}, time.Second)

		_, err := r.Resolve(context.Background(), Input{URL: "https://youtu.be/abc123"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty result is not found", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`[]`))
		}, time.Second)

		_, err := r.Resolve(context.Background(), Input{URL: "https://youtu.be/abc123"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("timeout surfaces as upstream unavailable", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-req.Context().Done():
			}
		}, 50*time.Millisecond)

		_, err := r.Resolve(context.Background(), Input{URL: "https://youtu.be/abc123"})
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("unsupported host makes no call", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			t.Error("unexpected lookup")
		}, time.Second)

		_, err := r.Resolve(context.Background(), Input{URL: "https://example.com/video"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedHost)
	})
}

package hostapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHosts struct {
	tokenRequests atomic.Int32
}

func (f *fakeHosts) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/yt/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		if r.URL.Query().Get("id") != "dQw4w9WgXcQ" {
			writeJSON(w, map[string]any{"items": []any{}})
			return
		}
		w.Write([]byte(`{"items":[{"id":"dQw4w9WgXcQ","snippet":{"title":"Song","channelId":"c1","channelTitle":"Rick","liveBroadcastContent":"none","thumbnails":{"default":{"url":"https://i.ytimg.com/t.jpg"}}}}]}`))
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case "http://" + r.Host + "/watch?v=embeddable":
			writeJSON(w, map[string]string{"title": "Song", "author_name": "Rick", "thumbnail_url": "https://i.ytimg.com/hq.jpg"})
		case "http://" + r.Host + "/watch?v=private":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Hidden song - YouTube</title></head><body><span><link itemprop="name" content="Rick"></span></body></html>`))
	})
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenRequests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		writeJSON(w, map[string]any{"access_token": "app-token", "expires_in": 3600})
	})
	mux.HandleFunc("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		assert.Equal(t, "client", r.Header.Get("Client-Id"))
		w.Write([]byte(`{"data":[{"user_id":"42","user_login":"streamer","user_name":"Streamer","title":"Live","thumbnail_url":"https://t/{width}x{height}.jpg"}]}`))
	})
	mux.HandleFunc("/helix/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"123","user_id":"42","user_name":"Streamer","title":"Vod","thumbnail_url":"https://t/%{width}x%{height}.jpg"}]}`))
	})
	mux.HandleFunc("/vimeo/videos/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vimeo/videos/76979871" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer vimeo", r.Header.Get("Authorization"))
		w.Write([]byte(`{"uri":"/videos/76979871","name":"Clip","user":{"uri":"/users/7","name":"Maker"}}`))
	})
	mux.HandleFunc("/live.m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U"))
	})

	return mux
}

func newTestClient(t *testing.T, cfg Config) (*Client, string) {
	t.Helper()
	hosts := &fakeHosts{}
	srv := httptest.NewServer(hosts.handler(t))
	t.Cleanup(srv.Close)

	cfg.Endpoints = &Endpoints{
		YoutubeAPI:  srv.URL + "/yt",
		YoutubeSite: srv.URL,
		TwitchAuth:  srv.URL + "/oauth2/token",
		TwitchAPI:   srv.URL + "/helix",
		VimeoAPI:    srv.URL + "/vimeo",
	}

	return New(&cfg), srv.URL
}

func TestYoutubeWithKey(t *testing.T) {
	c, _ := newTestClient(t, Config{YoutubeAPIKey: "key"})
	ctx := context.Background()

	videos, err := c.Lookup(ctx, "youtube", "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "youtube", videos[0].Host)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", videos[0].URL)
	assert.Equal(t, "Song", *videos[0].Title)
	assert.Equal(t, "Rick", videos[0].ChannelName)
	assert.False(t, videos[0].LivestreamChat)

	_, err = c.Lookup(ctx, "youtube", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYoutubeWithoutKey(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	ctx := context.Background()

	videos, err := c.Lookup(ctx, "youtube", "embeddable")
	require.NoError(t, err)
	assert.Equal(t, "Song", *videos[0].Title)
	assert.Equal(t, "https://i.ytimg.com/hq.jpg", *videos[0].ThumbnailURL)

	videos, err = c.Lookup(ctx, "youtube", "private")
	require.NoError(t, err)
	assert.Equal(t, "Hidden song", *videos[0].Title)
	assert.Equal(t, "Rick", videos[0].ChannelName)

	_, err = c.Lookup(ctx, "youtube", "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Lookup(ctx, "youtube-playlist", "PL1")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestTwitch(t *testing.T) {
	hosts := &fakeHosts{}
	srv := httptest.NewServer(hosts.handler(t))
	t.Cleanup(srv.Close)
	c := New(&Config{
		TwitchClientId:     "client",
		TwitchClientSecret: "secret",
		Endpoints: &Endpoints{
			TwitchAuth: srv.URL + "/oauth2/token",
			TwitchAPI:  srv.URL + "/helix",
		},
	})
	ctx := context.Background()

	streams, err := c.Lookup(ctx, "twitch", "streamer")
	require.NoError(t, err)
	assert.Equal(t, "https://www.twitch.tv/streamer", streams[0].URL)
	assert.Equal(t, "https://t/120x90.jpg", *streams[0].ThumbnailURL)
	assert.True(t, streams[0].LivestreamChat)

	vods, err := c.Lookup(ctx, "twitch-vod", "123")
	require.NoError(t, err)
	assert.Equal(t, "https://www.twitch.tv/videos/123", vods[0].URL)
	assert.Equal(t, "https://t/120x90.jpg", *vods[0].ThumbnailURL)

	assert.Equal(t, int32(1), hosts.tokenRequests.Load())
}

func TestMissingCredentials(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	ctx := context.Background()

	for _, host := range []string{"twitch", "twitch-vod", "vimeo"} {
		_, err := c.Lookup(ctx, host, "id")
		assert.ErrorIs(t, err, ErrConfiguration, host)
	}
}

func TestVimeo(t *testing.T) {
	c, _ := newTestClient(t, Config{VimeoAccessToken: "vimeo"})
	ctx := context.Background()

	videos, err := c.Lookup(ctx, "vimeo", "76979871")
	require.NoError(t, err)
	assert.Equal(t, "https://vimeo.com/76979871", videos[0].URL)
	assert.Equal(t, "7", *videos[0].ChannelId)

	_, err = c.Lookup(ctx, "vimeo", "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestM3U8(t *testing.T) {
	c, base := newTestClient(t, Config{})
	ctx := context.Background()

	videos, err := c.Lookup(ctx, "m3u8", base+"/live.m3u8")
	require.NoError(t, err)
	assert.Equal(t, base+"/live.m3u8", videos[0].Id)
	assert.Equal(t, "stream", videos[0].ChannelName)

	_, err = c.Lookup(ctx, "m3u8", base+"/gone.m3u8")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnsupportedHost(t *testing.T) {
	c, _ := newTestClient(t, Config{})

	_, err := c.Lookup(context.Background(), "dailymotion", "x")
	assert.ErrorIs(t, err, ErrUnsupportedHost)
	assert.Len(t, c.Hosts(), 6)
}

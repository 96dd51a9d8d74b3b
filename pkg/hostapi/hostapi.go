// Package hostapi looks up video metadata on the hosting sites a room can
// play from.
package hostapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrNotFound        = errors.New("no videos found")
	ErrUnsupportedHost = errors.New("unsupported host")
	// ErrConfiguration is returned when a lookup needs a credential that was
	// not configured. Callers must not tell clients which one.
	ErrConfiguration = errors.New("unknown server error")
)

const DefaultTimeout = 10 * time.Second

// StatusError is a non 2xx answer of a hosting site.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return e.Status == http.StatusNotFound && target == ErrNotFound
}

// Video mirrors the video entries rooms store.
type Video struct {
	Host           string  `json:"host"`
	Id             string  `json:"id"`
	URL            string  `json:"url"`
	Title          *string `json:"title"`
	ChannelId      *string `json:"channelId"`
	ChannelName    string  `json:"channelName"`
	LivestreamChat bool    `json:"livestreamChat"`
	ThumbnailURL   *string `json:"thumbnailUrl"`
}

type Endpoints struct {
	YoutubeAPI  string
	YoutubeSite string
	TwitchAuth  string
	TwitchAPI   string
	VimeoAPI    string
}

var DefaultEndpoints = Endpoints{
	YoutubeAPI:  "https://youtube.googleapis.com/youtube/v3",
	YoutubeSite: "https://www.youtube.com",
	TwitchAuth:  "https://id.twitch.tv/oauth2/token",
	TwitchAPI:   "https://api.twitch.tv/helix",
	VimeoAPI:    "https://api.vimeo.com",
}

type Config struct {
	YoutubeAPIKey      string
	TwitchClientId     string
	TwitchClientSecret string
	VimeoAccessToken   string
	Timeout            time.Duration
	// Endpoints overrides DefaultEndpoints when set.
	Endpoints *Endpoints
}

type lookupFunc func(ctx context.Context, id string) ([]Video, error)

type Client struct {
	cfg       Config
	endpoints Endpoints
	http      *http.Client
	twitch    *twitchToken
	lookups   map[string]lookupFunc
}

func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	endpoints := DefaultEndpoints
	if cfg.Endpoints != nil {
		endpoints = *cfg.Endpoints
	}

	c := &Client{
		cfg:       *cfg,
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
		twitch:    &twitchToken{},
	}
	c.lookups = map[string]lookupFunc{
		"youtube":          c.youtubeVideos,
		"youtube-playlist": c.youtubePlaylists,
		"twitch":           c.twitchStreams,
		"twitch-vod":       c.twitchVideos,
		"vimeo":            c.vimeoVideo,
		"m3u8":             c.m3u8Stream,
	}

	return c
}

// Hosts returns every host Lookup understands.
func (c *Client) Hosts() []string {
	hosts := make([]string, 0, len(c.lookups))
	for host := range c.lookups {
		hosts = append(hosts, host)
	}

	return hosts
}

func (c *Client) Lookup(ctx context.Context, host, id string) ([]Video, error) {
	lookup, ok := c.lookups[host]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHost, host)
	}

	videos, err := lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(videos) == 0 {
		return nil, ErrNotFound
	}

	return videos, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for key, values := range header {
		req.Header[key] = values
	}

	return c.do(req, v)
}

func ptr(s string) *string {
	return &s
}

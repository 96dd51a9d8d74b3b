package hostapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// twitchToken caches the app access token between lookups.
type twitchToken struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

type twitchAuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) twitchAccessToken(ctx context.Context) (string, error) {
	c.twitch.mu.Lock()
	defer c.twitch.mu.Unlock()

	if c.twitch.value != "" && time.Now().Before(c.twitch.expiresAt) {
		return c.twitch.value, nil
	}

	query := url.Values{
		"client_id":     {c.cfg.TwitchClientId},
		"client_secret": {c.cfg.TwitchClientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.TwitchAuth+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	var resp twitchAuthResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}

	c.twitch.value = resp.AccessToken
	// renew a minute early
	c.twitch.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - time.Minute)

	return c.twitch.value, nil
}

func (c *Client) twitchGet(ctx context.Context, resource string, query url.Values, v any) error {
	if c.cfg.TwitchClientId == "" || c.cfg.TwitchClientSecret == "" {
		return ErrConfiguration
	}

	token, err := c.twitchAccessToken(ctx)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Client-Id", c.cfg.TwitchClientId)

	return c.getJSON(ctx, c.endpoints.TwitchAPI+"/"+resource+"?"+query.Encode(), header, v)
}

type twitchStreamsResponse struct {
	Data []struct {
		UserId       string `json:"user_id"`
		UserLogin    string `json:"user_login"`
		UserName     string `json:"user_name"`
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"data"`
}

// twitchStreams looks up the live stream of the channel login id.
func (c *Client) twitchStreams(ctx context.Context, id string) ([]Video, error) {
	var resp twitchStreamsResponse
	if err := c.twitchGet(ctx, "streams", url.Values{"user_login": {id}}, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Data))
	for _, item := range resp.Data {
		videos = append(videos, Video{
			Host:           "twitch",
			Id:             item.UserLogin,
			URL:            "https://www.twitch.tv/" + item.UserLogin,
			Title:          ptr(item.Title),
			ChannelId:      ptr(item.UserId),
			ChannelName:    item.UserName,
			LivestreamChat: true,
			ThumbnailURL:   ptr(strings.Replace(item.ThumbnailURL, "{width}x{height}", "120x90", 1)),
		})
	}

	return videos, nil
}

type twitchVideosResponse struct {
	Data []struct {
		Id           string `json:"id"`
		UserId       string `json:"user_id"`
		UserName     string `json:"user_name"`
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"data"`
}

func (c *Client) twitchVideos(ctx context.Context, id string) ([]Video, error) {
	var resp twitchVideosResponse
	if err := c.twitchGet(ctx, "videos", url.Values{"id": {id}}, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Data))
	for _, item := range resp.Data {
		videos = append(videos, Video{
			Host:           "twitch-vod",
			Id:             item.Id,
			URL:            "https://www.twitch.tv/videos/" + item.Id,
			Title:          ptr(item.Title),
			ChannelId:      ptr(item.UserId),
			ChannelName:    item.UserName,
			LivestreamChat: true,
			ThumbnailURL:   ptr(strings.Replace(item.ThumbnailURL, "%{width}x%{height}", "120x90", 1)),
		})
	}

	return videos, nil
}

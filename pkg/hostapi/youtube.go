package hostapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type youtubeResponse struct {
	Items []struct {
		Id      string `json:"id"`
		Snippet struct {
			Title                string `json:"title"`
			ChannelId            string `json:"channelId"`
			ChannelTitle         string `json:"channelTitle"`
			LiveBroadcastContent string `json:"liveBroadcastContent"`
			Thumbnails           struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *Client) youtubeList(ctx context.Context, resource, id string) (youtubeResponse, error) {
	query := url.Values{
		"id":   {id},
		"key":  {c.cfg.YoutubeAPIKey},
		"part": {"snippet,id"},
	}

	var resp youtubeResponse
	err := c.getJSON(ctx, fmt.Sprintf("%s/%s?%s", c.endpoints.YoutubeAPI, resource, query.Encode()), nil, &resp)
	return resp, err
}

// youtubeVideos falls back to the public oEmbed endpoint when no API key is
// configured.
func (c *Client) youtubeVideos(ctx context.Context, id string) ([]Video, error) {
	if c.cfg.YoutubeAPIKey == "" {
		return c.youtubeKeyless(ctx, id)
	}

	resp, err := c.youtubeList(ctx, "videos", id)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, Video{
			Host:           "youtube",
			Id:             item.Id,
			URL:            "https://www.youtube.com/watch?v=" + item.Id,
			Title:          ptr(item.Snippet.Title),
			ChannelId:      ptr(item.Snippet.ChannelId),
			ChannelName:    item.Snippet.ChannelTitle,
			LivestreamChat: item.Snippet.LiveBroadcastContent == "live",
			ThumbnailURL:   ptr(item.Snippet.Thumbnails.Default.URL),
		})
	}

	return videos, nil
}

func (c *Client) youtubePlaylists(ctx context.Context, id string) ([]Video, error) {
	if c.cfg.YoutubeAPIKey == "" {
		return nil, ErrConfiguration
	}

	resp, err := c.youtubeList(ctx, "playlists", id)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, Video{
			Host:         "youtube-playlist",
			Id:           item.Id,
			URL:          "https://www.youtube.com/playlist?list=" + item.Id,
			Title:        ptr(item.Snippet.Title),
			ChannelId:    ptr(item.Snippet.ChannelId),
			ChannelName:  item.Snippet.ChannelTitle,
			ThumbnailURL: ptr(item.Snippet.Thumbnails.Default.URL),
		})
	}

	return videos, nil
}

var errNotEmbeddable = errors.New("video is not embeddable")

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (c *Client) youtubeKeyless(ctx context.Context, id string) ([]Video, error) {
	data, err := c.youtubeOEmbed(ctx, id)
	if errors.Is(err, errNotEmbeddable) {
		data, err = c.youtubePage(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	video := Video{
		Host:        "youtube",
		Id:          id,
		URL:         "https://www.youtube.com/watch?v=" + id,
		Title:       ptr(data.Title),
		ChannelName: data.AuthorName,
	}
	if data.ThumbnailURL != "" {
		video.ThumbnailURL = ptr(data.ThumbnailURL)
	}

	return []Video{video}, nil
}

func (c *Client) youtubeOEmbed(ctx context.Context, id string) (oembedResponse, error) {
	query := url.Values{
		"url":    {c.endpoints.YoutubeSite + "/watch?v=" + id},
		"format": {"json"},
	}

	var resp oembedResponse
	err := c.getJSON(ctx, c.endpoints.YoutubeSite+"/oembed?"+query.Encode(), nil, &resp)

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusBadRequest, http.StatusNotFound:
			return oembedResponse{}, ErrNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return oembedResponse{}, errNotEmbeddable
		}
	}

	return resp, err
}

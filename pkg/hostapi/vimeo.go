package hostapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

type vimeoResponse struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
	User struct {
		URI  string `json:"uri"`
		Name string `json:"name"`
	} `json:"user"`
}

func (c *Client) vimeoVideo(ctx context.Context, id string) ([]Video, error) {
	if c.cfg.VimeoAccessToken == "" {
		return nil, ErrConfiguration
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.VimeoAccessToken)

	var resp vimeoResponse
	endpoint := c.endpoints.VimeoAPI + "/videos/" + url.PathEscape(id) + "?fields=uri,name,type,user"
	if err := c.getJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, err
	}

	videoId := strings.TrimPrefix(resp.URI, "/videos/")
	return []Video{{
		Host:        "vimeo",
		Id:          videoId,
		URL:         "https://vimeo.com/" + videoId,
		Title:       ptr(resp.Name),
		ChannelId:   ptr(strings.TrimPrefix(resp.User.URI, "/users/")),
		ChannelName: resp.User.Name,
	}}, nil
}

// m3u8Stream only checks that the playlist URL id answers.
func (c *Client) m3u8Stream(ctx context.Context, id string) ([]Video, error) {
	u, err := url.Parse(id)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, err
	}

	if err := c.do(req, nil); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return []Video{{
		Host:        "m3u8",
		Id:          id,
		URL:         id,
		ChannelName: "stream",
	}}, nil
}

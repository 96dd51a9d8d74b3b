package hostapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// youtubePage reads the title and channel name of a video that cannot be
// embedded from its watch page.
func (c *Client) youtubePage(ctx context.Context, id string) (oembedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.YoutubeSite+"/watch?v="+id, nil)
	if err != nil {
		return oembedResponse{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return oembedResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oembedResponse{}, &StatusError{Status: resp.StatusCode}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return oembedResponse{}, err
	}

	title := strings.TrimSuffix(pageTitle(doc), " - YouTube")
	if title == "" {
		return oembedResponse{}, ErrNotFound
	}

	return oembedResponse{
		Title:        title,
		AuthorName:   channelName(doc),
		ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", id),
	}, nil
}

func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := pageTitle(c); title != "" {
			return title
		}
	}
	return ""
}

// channelName returns the content of <link itemprop="name">.
func channelName(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "link" && attr(n, "itemprop") == "name" {
		return attr(n, "content")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if name := channelName(c); name != "" {
			return name
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

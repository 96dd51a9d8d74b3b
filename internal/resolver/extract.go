package resolver

import (
	"regexp"
	"strings"

	"github.com/sharetube/syncroom/internal/domain"
)

type hostMarker struct {
	re   *regexp.Regexp
	host domain.Host
}

// Checked in order, the first match wins.
var hostMarkers = []hostMarker{
	{re: regexp.MustCompile(`\byoutube\b`), host: domain.HostYoutube},
	{re: regexp.MustCompile(`\byoutu\.be\b`), host: domain.HostYoutube},
	{re: regexp.MustCompile(`\btwitch\b`), host: domain.HostTwitch},
	{re: regexp.MustCompile(`\bvimeo\b`), host: domain.HostVimeo},
	{re: regexp.MustCompile(`\bm3u8\b`), host: domain.HostM3U8},
}

// ExtractHostName detects the video host of a pasted url.
func ExtractHostName(url string) (domain.Host, error) {
	for _, marker := range hostMarkers {
		if !marker.re.MatchString(url) {
			continue
		}

		switch marker.host {
		case domain.HostYoutube:
			if isYoutubePlaylist(url) {
				return domain.HostYoutubePlaylist, nil
			}
		case domain.HostTwitch:
			if strings.Contains(url, "/videos/") {
				return domain.HostTwitchVOD, nil
			}
		}

		return marker.host, nil
	}

	return "", domain.ErrUnsupportedHost
}

func isYoutubePlaylist(url string) bool {
	if !strings.Contains(url, "list=") {
		return false
	}

	return !strings.Contains(url, "v=") && !strings.Contains(url, ".be/")
}

// ExtractVideoId isolates the host native id from url.
func ExtractVideoId(host domain.Host, url string) (string, error) {
	if !host.Valid() {
		return "", domain.ErrUnsupportedHost
	}

	str := strings.TrimSuffix(url, "/")

	var id string
	switch host {
	case domain.HostYoutube:
		id = extractYoutubeId(str)
	case domain.HostYoutubePlaylist:
		id = after(str, "list=")
		id = cutQuery(id)
	case domain.HostTwitch:
		id = lastSegment(cutQuery(str))
	case domain.HostTwitchVOD:
		id = after(str, "/videos/")
		id = cutQuery(id)
	case domain.HostVimeo:
		id = lastSegment(cutQuery(str))
	case domain.HostM3U8:
		id = str
	}

	if id == "" || (host != domain.HostM3U8 && strings.ContainsAny(id, "/:.")) {
		return "", domain.ErrInvalidId
	}

	return id, nil
}

func extractYoutubeId(str string) string {
	id := before(str, "?si=")
	id = after(id, "?v=")
	id = after(id, "&v=")
	id = after(id, ".be/")
	id = after(id, "/live/")
	id = before(id, "?list=")
	id = before(id, "&list=")
	return cutQuery(id)
}

// after returns the part of s following marker, or s when marker is absent.
func after(s, marker string) string {
	if i := strings.Index(s, marker); i >= 0 {
		return s[i+len(marker):]
	}

	return s
}

func before(s, marker string) string {
	if i := strings.Index(s, marker); i >= 0 {
		return s[:i]
	}

	return s
}

func cutQuery(s string) string {
	if i := strings.IndexAny(s, "?&#"); i >= 0 {
		return s[:i]
	}

	return s
}

func lastSegment(s string) string {
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}

	return s
}

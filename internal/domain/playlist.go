package domain

import (
	"errors"
	"slices"
)

var (
	ErrVideoNotFound        = errors.New("video not found")
	ErrVideoAlreadyExists   = errors.New("video already in playlist")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
)

type Host string

const (
	HostYoutube         Host = "youtube"
	HostYoutubePlaylist Host = "youtube-playlist"
	HostTwitch          Host = "twitch"
	HostTwitchVOD       Host = "twitch-vod"
	HostVimeo           Host = "vimeo"
	HostM3U8            Host = "m3u8"
)

var Hosts = []Host{HostYoutube, HostYoutubePlaylist, HostTwitch, HostTwitchVOD, HostVimeo, HostM3U8}

func (h Host) Valid() bool {
	return slices.Contains(Hosts, h)
}

type VideoData struct {
	Host           Host    `json:"host" validate:"required,oneof=youtube youtube-playlist twitch twitch-vod vimeo m3u8"`
	Id             string  `json:"id" validate:"required"`
	URL            string  `json:"url"`
	Title          *string `json:"title"`
	ChannelId      *string `json:"channelId"`
	ChannelName    string  `json:"channelName"`
	LivestreamChat bool    `json:"livestreamChat"`
	ThumbnailURL   *string `json:"thumbnailUrl"`
}

type VideoKey struct {
	Host Host
	Id   string
}

func (v VideoData) Key() VideoKey {
	return VideoKey{Host: v.Host, Id: v.Id}
}

func (v VideoData) SameVideo(other VideoData) bool {
	return v.Key() == other.Key()
}

// Playlist computes resulting video lists. Every method returns a new slice
// and leaves the receiver list untouched.
type Playlist struct {
	list  []VideoData
	limit int
}

func NewPlaylist(list []VideoData, limit int) Playlist {
	return Playlist{
		list:  list,
		limit: limit,
	}
}

func (p Playlist) AsList() []VideoData {
	return cloneList(p.list)
}

func (p Playlist) Length() int {
	return len(p.list)
}

func (p Playlist) IndexOf(video VideoData) int {
	return slices.IndexFunc(p.list, video.SameVideo)
}

func (p Playlist) Add(video VideoData) ([]VideoData, error) {
	if p.IndexOf(video) >= 0 {
		return nil, ErrVideoAlreadyExists
	}

	if p.limit > 0 && p.Length() >= p.limit {
		return nil, ErrPlaylistLimitReached
	}

	return append(p.AsList(), video), nil
}

func (p Playlist) Remove(video VideoData) ([]VideoData, error) {
	index := p.IndexOf(video)
	if index < 0 {
		return nil, ErrVideoNotFound
	}

	return slices.Delete(p.AsList(), index, index+1), nil
}

// Change makes video the now playing entry by moving it to the front.
func (p Playlist) Change(video VideoData) ([]VideoData, error) {
	return p.Reorder(video, 0)
}

// Reorder moves video to targetIndex. A target outside the list leaves the
// list as it is.
func (p Playlist) Reorder(video VideoData, targetIndex int) ([]VideoData, error) {
	index := p.IndexOf(video)
	if index < 0 {
		return nil, ErrVideoNotFound
	}

	list := p.AsList()
	if targetIndex < 0 || targetIndex >= len(list) || targetIndex == index {
		return list, nil
	}

	moved := list[index]
	list = slices.Delete(list, index, index+1)
	return slices.Insert(list, targetIndex, moved), nil
}

// Ended drops the now playing entry if it is video. Several clients report
// the end of the same entry, only the first report advances the list.
func (p Playlist) Ended(video VideoData) ([]VideoData, bool) {
	if p.Length() == 0 || !p.list[0].SameVideo(video) {
		return p.AsList(), false
	}

	return cloneList(p.list[1:]), true
}

package domain

import (
	"slices"
)

const (
	RoomIdMinLength  = 6
	MessageMaxLength = 128
)

type UserData struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type MessageData struct {
	Id        string   `json:"id"`
	User      UserData `json:"user"`
	Message   string   `json:"message"`
	Timestamp int64    `json:"timestamp"`
}

// RoomData is the replicated part of a room. videoList[0], when present, is
// the now playing entry. OwnerId is assigned to the first joiner and never
// changes afterwards.
type RoomData struct {
	OwnerId     string        `json:"ownerId"`
	Id          string        `json:"id"`
	CreatedAt   int64         `json:"createdAt"`
	UserList    []UserData    `json:"userList"`
	MessageList []MessageData `json:"messageList"`
	VideoList   []VideoData   `json:"videoList"`
}

// Clone returns a copy that shares no slice backing arrays with r.
func (r *RoomData) Clone() *RoomData {
	if r == nil {
		return nil
	}

	return &RoomData{
		OwnerId:     r.OwnerId,
		Id:          r.Id,
		CreatedAt:   r.CreatedAt,
		UserList:    cloneList(r.UserList),
		MessageList: cloneList(r.MessageList),
		VideoList:   cloneList(r.VideoList),
	}
}

// NowPlaying returns the first playlist entry.
func (r *RoomData) NowPlaying() (VideoData, bool) {
	if r == nil || len(r.VideoList) == 0 {
		return VideoData{}, false
	}

	return r.VideoList[0], true
}

func (r *RoomData) HasUser(userId string) bool {
	if r == nil {
		return false
	}

	return slices.ContainsFunc(r.UserList, func(u UserData) bool {
		return u.Id == userId
	})
}

// IsAuthority reports whether user drives playback for room.
func IsAuthority(user *UserData, room *RoomData) bool {
	if user == nil || room == nil || room.OwnerId == "" {
		return false
	}

	return user.Id == room.OwnerId
}

func cloneList[T any](list []T) []T {
	if list == nil {
		return []T{}
	}

	return slices.Clone(list)
}

// Package playlist sends playlist and chat edits to the room. Nothing is
// applied locally, the list changes when the server broadcasts it back.
package playlist

import (
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sharetube/syncroom/internal/client/channel"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
)

var (
	ErrEmptyVideo   = errors.New("video is empty")
	ErrEmptyMessage = errors.New("message is empty")
	ErrLongMessage  = errors.New("message is too long")
)

type Sender interface {
	Send(ev event.Outbound) error
}

type Dispatcher struct {
	roomId      string
	sender      Sender
	clearSearch func()
	logger      *slog.Logger
}

// New returns a dispatcher for roomId. clearSearch, if set, runs before a
// search result is added to the playlist.
func New(roomId string, sender Sender, clearSearch func(), logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		roomId:      roomId,
		sender:      sender,
		clearSearch: clearSearch,
		logger:      logger,
	}
}

func (d *Dispatcher) check(video domain.VideoData) error {
	if d.sender == nil || d.roomId == "" {
		return channel.ErrNotConnected
	}
	if video.Host == "" || video.Id == "" {
		return ErrEmptyVideo
	}

	return nil
}

func (d *Dispatcher) Add(video domain.VideoData) error {
	if err := d.check(video); err != nil {
		return err
	}

	if d.clearSearch != nil {
		d.clearSearch()
	}

	return d.sender.Send(event.AddVideo{RoomId: d.roomId, Video: video})
}

func (d *Dispatcher) Remove(video domain.VideoData) error {
	if err := d.check(video); err != nil {
		return err
	}

	return d.sender.Send(event.RemoveVideo{RoomId: d.roomId, Video: video})
}

// Change makes video the now playing entry.
func (d *Dispatcher) Change(video domain.VideoData) error {
	if err := d.check(video); err != nil {
		return err
	}

	return d.sender.Send(event.ChangeVideo{RoomId: d.roomId, Video: video})
}

// Reorder asks to move video to targetIndex. The index is sent unchecked,
// the server decides what an out of range target means.
func (d *Dispatcher) Reorder(video domain.VideoData, targetIndex int) error {
	if err := d.check(video); err != nil {
		return err
	}

	d.logger.Debug("reorder requested", "video_id", video.Id, "target_index", targetIndex)
	return d.sender.Send(event.ReorderVideo{RoomId: d.roomId, Video: video, TargetIndex: targetIndex})
}

func (d *Dispatcher) SendMessage(text string) error {
	if d.sender == nil || d.roomId == "" {
		return channel.ErrNotConnected
	}

	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return ErrEmptyMessage
	case n > domain.MessageMaxLength:
		return ErrLongMessage
	}

	return d.sender.Send(event.SendMessage{RoomId: d.roomId, Message: text})
}

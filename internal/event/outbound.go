package event

import (
	"encoding/json"
	"fmt"

	"github.com/sharetube/syncroom/internal/domain"
)

// Outbound is a command a room member sends to the server.
type Outbound interface {
	Event
	Room() string
	outbound()
}

type SendMessage struct {
	RoomId  string `json:"roomId" validate:"required"`
	Message string `json:"message" validate:"required,max=128"`
}

type AddVideo struct {
	RoomId string           `json:"roomId" validate:"required"`
	Video  domain.VideoData `json:"video"`
}

type RemoveVideo struct {
	RoomId string           `json:"roomId" validate:"required"`
	Video  domain.VideoData `json:"video"`
}

type StartVideo struct {
	RoomId string `json:"roomId" validate:"required"`
}

type StopVideo struct {
	RoomId string `json:"roomId" validate:"required"`
}

type ReportProgress struct {
	RoomId        string  `json:"roomId" validate:"required"`
	VideoProgress float64 `json:"videoProgress" validate:"gte=0,lte=1"`
}

type ChangePlaybackRate struct {
	RoomId       string  `json:"roomId" validate:"required"`
	PlaybackRate float64 `json:"playbackRate" validate:"gt=0"`
}

type ChangeVideo struct {
	RoomId string           `json:"roomId" validate:"required"`
	Video  domain.VideoData `json:"video"`
}

// ReorderVideo is sent as is even when TargetIndex is outside the playlist.
type ReorderVideo struct {
	RoomId      string           `json:"roomId" validate:"required"`
	Video       domain.VideoData `json:"video"`
	TargetIndex int              `json:"targetIndex"`
}

type EndVideo struct {
	RoomId string           `json:"roomId" validate:"required"`
	Video  domain.VideoData `json:"video"`
}

func (SendMessage) EventName() Name        { return NameNewChatMessage }
func (AddVideo) EventName() Name           { return NameNewVideoAdded }
func (RemoveVideo) EventName() Name        { return NameVideoRemoved }
func (StartVideo) EventName() Name         { return NameStartVideo }
func (StopVideo) EventName() Name          { return NameStopVideo }
func (ReportProgress) EventName() Name     { return NameVideoProgress }
func (ChangePlaybackRate) EventName() Name { return NamePlaybackRateChange }
func (ChangeVideo) EventName() Name        { return NameChangeVideo }
func (ReorderVideo) EventName() Name       { return NameReorderVideo }
func (EndVideo) EventName() Name           { return NameVideoEnded }

func (e SendMessage) Room() string        { return e.RoomId }
func (e AddVideo) Room() string           { return e.RoomId }
func (e RemoveVideo) Room() string        { return e.RoomId }
func (e StartVideo) Room() string         { return e.RoomId }
func (e StopVideo) Room() string          { return e.RoomId }
func (e ReportProgress) Room() string     { return e.RoomId }
func (e ChangePlaybackRate) Room() string { return e.RoomId }
func (e ChangeVideo) Room() string        { return e.RoomId }
func (e ReorderVideo) Room() string       { return e.RoomId }
func (e EndVideo) Room() string           { return e.RoomId }

func (SendMessage) outbound()        {}
func (AddVideo) outbound()           {}
func (RemoveVideo) outbound()        {}
func (StartVideo) outbound()         {}
func (StopVideo) outbound()          {}
func (ReportProgress) outbound()     {}
func (ChangePlaybackRate) outbound() {}
func (ChangeVideo) outbound()        {}
func (ReorderVideo) outbound()       {}
func (EndVideo) outbound()           {}

// OutboundNames lists every name DecodeOutbound understands.
var OutboundNames = []Name{
	NameNewChatMessage,
	NameNewVideoAdded,
	NameVideoRemoved,
	NameStartVideo,
	NameStopVideo,
	NameVideoProgress,
	NamePlaybackRateChange,
	NameChangeVideo,
	NameReorderVideo,
	NameVideoEnded,
}

func DecodeOutbound(data []byte) (Outbound, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	switch msg.Type {
	case NameNewChatMessage:
		return decodeOutbound[SendMessage](msg.Payload)
	case NameNewVideoAdded:
		return decodeOutbound[AddVideo](msg.Payload)
	case NameVideoRemoved:
		return decodeOutbound[RemoveVideo](msg.Payload)
	case NameStartVideo:
		return decodeOutbound[StartVideo](msg.Payload)
	case NameStopVideo:
		return decodeOutbound[StopVideo](msg.Payload)
	case NameVideoProgress:
		return decodeOutbound[ReportProgress](msg.Payload)
	case NamePlaybackRateChange:
		return decodeOutbound[ChangePlaybackRate](msg.Payload)
	case NameChangeVideo:
		return decodeOutbound[ChangeVideo](msg.Payload)
	case NameReorderVideo:
		return decodeOutbound[ReorderVideo](msg.Payload)
	case NameVideoEnded:
		return decodeOutbound[EndVideo](msg.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}
}

func decodeOutbound[T Outbound](payload json.RawMessage) (Outbound, error) {
	ev, err := decodePayload[T](payload)
	if err != nil {
		return nil, err
	}

	return ev, nil
}

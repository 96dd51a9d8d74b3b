package event

import (
	"encoding/json"
	"fmt"

	"github.com/sharetube/syncroom/internal/domain"
)

// Inbound is an event pushed by the server to a room member.
type Inbound interface {
	Event
	Accept(v InboundVisitor)
	inbound()
}

// InboundVisitor has one method per inbound event. Adding an event to the
// set adds a method here, so every consumer has to handle it to compile.
type InboundVisitor interface {
	VisitAllRoomData(AllRoomData)
	VisitUserJoined(UserJoined)
	VisitUserLeaving(UserLeaving)
	VisitChatMessages(ChatMessages)
	VisitVideoAdded(VideoAdded)
	VisitVideoRemoved(VideoRemoved)
	VisitVideoStarted(VideoStarted)
	VisitVideoStopped(VideoStopped)
	VisitProgressReported(ProgressReported)
	VisitPlaybackRateChanged(PlaybackRateChanged)
	VisitVideoChanged(VideoChanged)
	VisitVideoReordered(VideoReordered)
	VisitVideoEnded(VideoEnded)
	VisitServerError(ServerError)
}

// AllRoomData is the full snapshot sent on every (re)connect.
type AllRoomData struct {
	UserData  domain.UserData `json:"userData"`
	RoomData  domain.RoomData `json:"roomData"`
	AuthToken string          `json:"authToken,omitempty"`
}

type UserJoined struct {
	UserList []domain.UserData `json:"userList"`
}

// UserLeaving carries either the resulting user list or only the id of the
// user that left.
type UserLeaving struct {
	UserList []domain.UserData `json:"userList"`
	UserId   string            `json:"userId,omitempty"`
}

type ChatMessages struct {
	MessageList []domain.MessageData `json:"messageList"`
}

type VideoAdded struct {
	VideoList []domain.VideoData `json:"videoList"`
}

type VideoRemoved struct {
	VideoList []domain.VideoData `json:"videoList"`
}

type VideoStarted struct {
	VideoProgress float64 `json:"videoProgress"`
}

type VideoStopped struct{}

type ProgressReported struct {
	VideoProgress float64 `json:"videoProgress"`
}

type PlaybackRateChanged struct {
	PlaybackRate float64 `json:"playbackRate"`
}

type VideoChanged struct {
	VideoList []domain.VideoData `json:"videoList"`
}

type VideoReordered struct {
	VideoList []domain.VideoData `json:"videoList"`
}

type VideoEnded struct {
	VideoList []domain.VideoData `json:"videoList"`
}

type ServerError struct {
	Message string `json:"message"`
}

func (AllRoomData) EventName() Name         { return NameAllRoomData }
func (UserJoined) EventName() Name          { return NameUserJoined }
func (UserLeaving) EventName() Name         { return NameUserLeaving }
func (ChatMessages) EventName() Name        { return NameNewChatMessage }
func (VideoAdded) EventName() Name          { return NameNewVideoAdded }
func (VideoRemoved) EventName() Name        { return NameVideoRemoved }
func (VideoStarted) EventName() Name        { return NameStartVideo }
func (VideoStopped) EventName() Name        { return NameStopVideo }
func (ProgressReported) EventName() Name    { return NameVideoProgress }
func (PlaybackRateChanged) EventName() Name { return NamePlaybackRateChange }
func (VideoChanged) EventName() Name        { return NameChangeVideo }
func (VideoReordered) EventName() Name      { return NameReorderVideo }
func (VideoEnded) EventName() Name          { return NameVideoEnded }
func (ServerError) EventName() Name         { return NameError }

func (e AllRoomData) Accept(v InboundVisitor)         { v.VisitAllRoomData(e) }
func (e UserJoined) Accept(v InboundVisitor)          { v.VisitUserJoined(e) }
func (e UserLeaving) Accept(v InboundVisitor)         { v.VisitUserLeaving(e) }
func (e ChatMessages) Accept(v InboundVisitor)        { v.VisitChatMessages(e) }
func (e VideoAdded) Accept(v InboundVisitor)          { v.VisitVideoAdded(e) }
func (e VideoRemoved) Accept(v InboundVisitor)        { v.VisitVideoRemoved(e) }
func (e VideoStarted) Accept(v InboundVisitor)        { v.VisitVideoStarted(e) }
func (e VideoStopped) Accept(v InboundVisitor)        { v.VisitVideoStopped(e) }
func (e ProgressReported) Accept(v InboundVisitor)    { v.VisitProgressReported(e) }
func (e PlaybackRateChanged) Accept(v InboundVisitor) { v.VisitPlaybackRateChanged(e) }
func (e VideoChanged) Accept(v InboundVisitor)        { v.VisitVideoChanged(e) }
func (e VideoReordered) Accept(v InboundVisitor)      { v.VisitVideoReordered(e) }
func (e VideoEnded) Accept(v InboundVisitor)          { v.VisitVideoEnded(e) }
func (e ServerError) Accept(v InboundVisitor)         { v.VisitServerError(e) }

func (AllRoomData) inbound()         {}
func (UserJoined) inbound()          {}
func (UserLeaving) inbound()         {}
func (ChatMessages) inbound()        {}
func (VideoAdded) inbound()          {}
func (VideoRemoved) inbound()        {}
func (VideoStarted) inbound()        {}
func (VideoStopped) inbound()        {}
func (ProgressReported) inbound()    {}
func (PlaybackRateChanged) inbound() {}
func (VideoChanged) inbound()        {}
func (VideoReordered) inbound()      {}
func (VideoEnded) inbound()          {}
func (ServerError) inbound()         {}

// InboundNames lists every name DecodeInbound understands.
var InboundNames = []Name{
	NameAllRoomData,
	NameUserJoined,
	NameUserLeaving,
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
	NameError,
}

func DecodeInbound(data []byte) (Inbound, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return DecodeInboundPayload(msg.Type, msg.Payload)
}

func DecodeInboundPayload(name Name, payload json.RawMessage) (Inbound, error) {
	switch name {
	case NameAllRoomData:
		return decodeInbound[AllRoomData](payload)
	case NameUserJoined:
		return decodeInbound[UserJoined](payload)
	case NameUserLeaving:
		return decodeInbound[UserLeaving](payload)
	case NameNewChatMessage:
		return decodeInbound[ChatMessages](payload)
	case NameNewVideoAdded:
		return decodeInbound[VideoAdded](payload)
	case NameVideoRemoved:
		return decodeInbound[VideoRemoved](payload)
	case NameStartVideo:
		return decodeInbound[VideoStarted](payload)
	case NameStopVideo:
		return decodeInbound[VideoStopped](payload)
	case NameVideoProgress:
		return decodeInbound[ProgressReported](payload)
	case NamePlaybackRateChange:
		return decodeInbound[PlaybackRateChanged](payload)
	case NameChangeVideo:
		return decodeInbound[VideoChanged](payload)
	case NameReorderVideo:
		return decodeInbound[VideoReordered](payload)
	case NameVideoEnded:
		return decodeInbound[VideoEnded](payload)
	case NameError:
		return decodeInbound[ServerError](payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

func decodeInbound[T Inbound](payload json.RawMessage) (Inbound, error) {
	ev, err := decodePayload[T](payload)
	if err != nil {
		return nil, err
	}

	return ev, nil
}

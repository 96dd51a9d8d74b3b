// Package event defines the messages exchanged over a room channel. Both
// directions are closed sets: every inbound event implements Inbound, every
// outbound command implements Outbound, and neither interface can be
// implemented outside this package.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid event payload")
)

type Name string

const (
	NameAllRoomData        Name = "all_room_data"
	NameUserJoined         Name = "user_joined"
	NameUserLeaving        Name = "user_leaving"
	NameNewChatMessage     Name = "new_chat_message"
	NameNewVideoAdded      Name = "new_video_added"
	NameVideoRemoved       Name = "video_removed"
	NameStartVideo         Name = "start_video"
	NameStopVideo          Name = "stop_video"
	NameVideoProgress      Name = "video_progress"
	NamePlaybackRateChange Name = "playback_rate_change"
	NameChangeVideo        Name = "change_video"
	NameReorderVideo       Name = "reorder_video"
	NameVideoEnded         Name = "video_ended"
	NameError              Name = "error"
)

type Event interface {
	EventName() Name
}

// Message is the wire envelope.
type Message struct {
	Type    Name            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func Encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.EventName(), err)
	}

	return json.Marshal(Message{
		Type:    ev.EventName(),
		Payload: payload,
	})
}

func decodePayload[T Event](payload json.RawMessage) (T, error) {
	var ev T
	if len(payload) == 0 || string(payload) == "null" {
		return ev, nil
	}

	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, ev.EventName(), err)
	}

	return ev, nil
}

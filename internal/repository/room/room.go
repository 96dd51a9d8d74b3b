package room

import (
	"context"
	"encoding/json"

	"github.com/sharetube/syncroom/internal/domain"
)

// State is everything stored for one room.
type State struct {
	Room   domain.RoomData
	Player domain.Player
	// Connections maps a member to the id of the connection currently
	// serving it.
	Connections map[string]string
	// Exists is false when the room has not been stored yet. Saving such a
	// state creates the room.
	Exists bool
}

// Notification is published to every server instance after a successful
// update. Exactly one of To and Except may be set.
type Notification struct {
	RoomId  string          `json:"room_id"`
	To      string          `json:"to,omitempty"`
	Except  string          `json:"except,omitempty"`
	Message json.RawMessage `json:"message"`
}

// UpdateFunc mutates state in place and returns the notifications to publish
// with it. Returning an error discards the update.
type UpdateFunc func(state *State) ([]Notification, error)

type NotificationHandler func(ctx context.Context, n Notification)

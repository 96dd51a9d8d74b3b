package controller

import (
	"context"
	"errors"

	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	roomRepo "github.com/sharetube/syncroom/internal/repository/room"
	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/validator"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

// Deliver writes a published notification to the connections of this
// instance it is addressed to.
func (c controller) Deliver(ctx context.Context, n roomRepo.Notification) {
	if n.To != "" {
		conn, err := c.connRepo.Get(n.RoomId, n.To)
		if err != nil {
			// connected to another instance
			return
		}
		if err := conn.WriteMessage(n.Message); err != nil {
			c.logger.InfoContext(ctx, "failed to deliver", "room_id", n.RoomId, "user_id", n.To, "error", err)
		}
		return
	}

	for userId, conn := range c.connRepo.List(n.RoomId) {
		if userId == n.Except {
			continue
		}
		if err := conn.WriteMessage(n.Message); err != nil {
			c.logger.InfoContext(ctx, "failed to deliver", "room_id", n.RoomId, "user_id", userId, "error", err)
		}
	}
}

var clientErrors = []error{
	ErrRoomMismatch,
	wsrouter.ErrUnknownMessageType,
	wsrouter.ErrInvalidMessage,
	domain.ErrUserNotFound,
	domain.ErrUserAlreadyExists,
	domain.ErrUsersLimitReached,
	domain.ErrVideoNotFound,
	domain.ErrVideoAlreadyExists,
	domain.ErrPlaylistLimitReached,
	room.ErrNotMember,
	room.ErrEmptyMessage,
	room.ErrMessageTooLong,
	roomRepo.ErrRoomNotFound,
}

// errorMessage hides everything but the errors a member can act on.
func errorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationErrs.Error()
	}

	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}

	return "unknown server error"
}

// writeError sends an error event to the sender only.
func (c controller) writeError(ctx context.Context, conn *wsrouter.Conn, err error) {
	c.logger.InfoContext(ctx, "websocket request failed", "error", err)

	data, encodeErr := event.Encode(event.ServerError{Message: errorMessage(err)})
	if encodeErr != nil {
		c.logger.ErrorContext(ctx, "failed to encode error", "error", encodeErr)
		return
	}

	if err := conn.WriteMessage(data); err != nil {
		c.logger.InfoContext(ctx, "failed to write error", "error", err)
	}
}

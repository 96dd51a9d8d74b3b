package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/ctxlogger"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

var ErrRoomMismatch = errors.New("event is addressed to another room")

const (
	closeJoinFailed = 4000
	closeReplaced   = 4001
)

// joinRoom upgrades GET /ws/rooms/{room-id} and serves the member until the
// connection drops.
func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	query := r.URL.Query()

	user, err := c.roomService.Identify(r.Context(), &room.IdentifyParams{
		RoomId:    roomId,
		Name:      query.Get("name"),
		AuthToken: query.Get("auth-token"),
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to identify user", "room_id", roomId, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidRoomId) {
			status = http.StatusBadRequest
		}
		c.writeJSON(w, r, status, errorResponse{Error: err.Error()})
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}
	conn := wsrouter.NewConn(ws)
	connId := c.generateTimeBasedId()

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, userIdCtxKey, user.Id)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", user.Id))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", connId))

	// registered before joining so the snapshot finds the connection
	if previous := c.connRepo.Add(roomId, user.Id, conn); previous != nil {
		c.logger.InfoContext(ctx, "closing replaced connection")
		previous.CloseWithCode(closeReplaced, "replaced by a new connection")
	}

	if _, err := c.roomService.Join(ctx, &room.JoinParams{
		RoomId:       roomId,
		User:         user,
		ConnectionId: connId,
	}); err != nil {
		c.connRepo.Remove(roomId, user.Id, conn)
		c.writeError(ctx, conn, err)
		conn.CloseWithCode(closeJoinFailed, "join failed")
		return
	}
	c.logger.InfoContext(ctx, "user joined")

	err = c.wsRouter.ServeConn(ctx, conn)
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
	conn.Close()

	if err := c.connRepo.Remove(roomId, user.Id, conn); err != nil {
		c.logger.InfoContext(ctx, "connection was replaced, keeping user")
		return
	}

	err = c.roomService.Leave(context.WithoutCancel(ctx), &room.LeaveParams{
		RoomId:       roomId,
		UserId:       user.Id,
		ConnectionId: connId,
	})
	switch {
	case errors.Is(err, room.ErrConnectionReplaced):
		c.logger.InfoContext(ctx, "connection was replaced, keeping user")
	case err != nil:
		c.logger.WarnContext(ctx, "failed to leave room", "error", err)
	default:
		c.logger.InfoContext(ctx, "user left")
	}
}

func (c controller) checkInput(ctx context.Context, input event.Outbound) error {
	if err := c.validate.Struct(input); err != nil {
		return err
	}

	if input.Room() != c.getRoomIdFromCtx(ctx) {
		return ErrRoomMismatch
	}

	return nil
}

func (c controller) handleSendMessage(ctx context.Context, _ *wsrouter.Conn, input event.SendMessage) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.SendMessage(ctx, &room.SendMessageParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Message:  input.Message,
	})
}

func (c controller) handleAddVideo(ctx context.Context, _ *wsrouter.Conn, input event.AddVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.AddVideo(ctx, &room.VideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Video:    input.Video,
	})
}

func (c controller) handleRemoveVideo(ctx context.Context, _ *wsrouter.Conn, input event.RemoveVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.RemoveVideo(ctx, &room.VideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Video:    input.Video,
	})
}

func (c controller) handleChangeVideo(ctx context.Context, _ *wsrouter.Conn, input event.ChangeVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.ChangeVideo(ctx, &room.VideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Video:    input.Video,
	})
}

func (c controller) handleReorderVideo(ctx context.Context, _ *wsrouter.Conn, input event.ReorderVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.ReorderVideo(ctx, &room.ReorderVideoParams{
		RoomId:      input.RoomId,
		SenderId:    c.getUserIdFromCtx(ctx),
		Video:       input.Video,
		TargetIndex: input.TargetIndex,
	})
}

func (c controller) handleEndVideo(ctx context.Context, _ *wsrouter.Conn, input event.EndVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.EndVideo(ctx, &room.VideoParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
		Video:    input.Video,
	})
}

func (c controller) handleStartVideo(ctx context.Context, _ *wsrouter.Conn, input event.StartVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.StartVideo(ctx, &room.PlayerParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
	})
}

func (c controller) handleStopVideo(ctx context.Context, _ *wsrouter.Conn, input event.StopVideo) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.StopVideo(ctx, &room.PlayerParams{
		RoomId:   input.RoomId,
		SenderId: c.getUserIdFromCtx(ctx),
	})
}

func (c controller) handleReportProgress(ctx context.Context, _ *wsrouter.Conn, input event.ReportProgress) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.ReportProgress(ctx, &room.ReportProgressParams{
		RoomId:        input.RoomId,
		SenderId:      c.getUserIdFromCtx(ctx),
		VideoProgress: input.VideoProgress,
	})
}

func (c controller) handleChangePlaybackRate(ctx context.Context, _ *wsrouter.Conn, input event.ChangePlaybackRate) error {
	if err := c.checkInput(ctx, input); err != nil {
		return err
	}

	return c.roomService.ChangePlaybackRate(ctx, &room.ChangePlaybackRateParams{
		RoomId:       input.RoomId,
		SenderId:     c.getUserIdFromCtx(ctx),
		PlaybackRate: input.PlaybackRate,
	})
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/repository/room"
)

type roomMeta struct {
	OwnerId      string  `redis:"owner_id"`
	CreatedAt    int64   `redis:"created_at"`
	IsPlaying    bool    `redis:"is_playing"`
	Progress     float64 `redis:"progress"`
	PlaybackRate float64 `redis:"playback_rate"`
}

func (r repo) load(ctx context.Context, c redis.Cmdable, roomId string) (room.State, error) {
	state := room.State{
		Room: domain.RoomData{
			Id:          roomId,
			UserList:    []domain.UserData{},
			MessageList: []domain.MessageData{},
			VideoList:   []domain.VideoData{},
		},
		Player:      domain.NewPlayer(),
		Connections: map[string]string{},
	}

	fields, err := c.HGetAll(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return room.State{}, err
	}
	if len(fields) == 0 {
		return state, nil
	}

	state.Exists = true
	state.Room.OwnerId = fields["owner_id"]
	state.Room.CreatedAt = r.fieldToInt64(fields["created_at"])
	state.Player.IsPlaying = r.fieldToBool(fields["is_playing"])
	state.Player.Progress = r.fieldToFload64(fields["progress"])
	if rate := r.fieldToFload64(fields["playback_rate"]); rate > 0 {
		state.Player.PlaybackRate = rate
	}

	lists, err := c.MGet(ctx,
		r.getUserListKey(roomId),
		r.getMessageListKey(roomId),
		r.getVideoListKey(roomId),
	).Result()
	if err != nil {
		return room.State{}, err
	}

	if err := r.getJSON(lists[0], &state.Room.UserList); err != nil {
		return room.State{}, fmt.Errorf("failed to decode user list: %w", err)
	}
	if err := r.getJSON(lists[1], &state.Room.MessageList); err != nil {
		return room.State{}, fmt.Errorf("failed to decode message list: %w", err)
	}
	if err := r.getJSON(lists[2], &state.Room.VideoList); err != nil {
		return room.State{}, fmt.Errorf("failed to decode video list: %w", err)
	}

	conns, err := c.HGetAll(ctx, r.getConnectionsKey(roomId)).Result()
	if err != nil {
		return room.State{}, err
	}
	state.Connections = conns

	return state, nil
}

func (r repo) save(ctx context.Context, pipe redis.Pipeliner, state *room.State) error {
	roomId := state.Room.Id
	roomKey := r.getRoomKey(roomId)

	if err := r.HSetStruct(ctx, pipe, roomKey, roomMeta{
		OwnerId:      state.Room.OwnerId,
		CreatedAt:    state.Room.CreatedAt,
		IsPlaying:    state.Player.IsPlaying,
		Progress:     state.Player.Progress,
		PlaybackRate: state.Player.PlaybackRate,
	}); err != nil {
		return err
	}
	pipe.Expire(ctx, roomKey, r.roomExp)

	if err := r.setJSON(ctx, pipe, r.getUserListKey(roomId), state.Room.UserList); err != nil {
		return err
	}
	if err := r.setJSON(ctx, pipe, r.getMessageListKey(roomId), state.Room.MessageList); err != nil {
		return err
	}

	connsKey := r.getConnectionsKey(roomId)
	pipe.Del(ctx, connsKey)
	if len(state.Connections) > 0 {
		conns := make(map[string]interface{}, len(state.Connections))
		for userId, connId := range state.Connections {
			conns[userId] = connId
		}
		pipe.HSet(ctx, connsKey, conns)
		pipe.Expire(ctx, connsKey, r.roomExp)
	}

	return r.setJSON(ctx, pipe, r.getVideoListKey(roomId), state.Room.VideoList)
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.State, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	state, err := r.load(ctx, r.rc, roomId)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.State{}, err
	}

	if !state.Exists {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.State{}, room.ErrRoomNotFound
	}

	return state, nil
}

// UpdateRoom runs fn on the current state of roomId inside an optimistic
// transaction and stores the result together with the notifications fn
// returns. fn may run more than once when another writer gets in between.
func (r repo) UpdateRoom(ctx context.Context, roomId string, fn room.UpdateFunc) (room.State, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)

	var result room.State
	txf := func(tx *redis.Tx) error {
		state, err := r.load(ctx, tx, roomId)
		if err != nil {
			return err
		}

		notifications, err := fn(&state)
		if err != nil {
			return err
		}

		payloads := make([][]byte, 0, len(notifications))
		for _, n := range notifications {
			n.RoomId = roomId
			payload, err := json.Marshal(n)
			if err != nil {
				return err
			}
			payloads = append(payloads, payload)
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := r.save(ctx, pipe, &state); err != nil {
				return err
			}
			for _, payload := range payloads {
				pipe.Publish(ctx, r.getEventsChannel(roomId), payload)
			}
			return nil
		}); err != nil {
			return err
		}

		state.Exists = true
		result = state
		return nil
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.rc.Watch(ctx, txf, r.getKeys(roomId)...)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.DebugContext(ctx, "transaction retried", "room_id", roomId)
			continue
		}

		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.State{}, err
	}

	r.logger.DebugContext(ctx, "returned", "error", room.ErrConflict)
	return room.State{}, room.ErrConflict
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour, slog.Default()), s
}

func TestGetMissingRoom(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.GetRoom(context.Background(), "room-42")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestUpdateRoomCreatesAndStores(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()
	title := "A video"

	created, err := r.UpdateRoom(ctx, "room-42", func(state *room.State) ([]room.Notification, error) {
		assert.False(t, state.Exists)
		assert.Equal(t, domain.DefaultPlaybackRate, state.Player.PlaybackRate)

		state.Room.OwnerId = "u1"
		state.Room.CreatedAt = 1700000000000
		state.Room.UserList = append(state.Room.UserList, domain.UserData{Id: "u1", Name: "alice"})
		state.Room.VideoList = append(state.Room.VideoList, domain.VideoData{Host: domain.HostYoutube, Id: "abc123", Title: &title})
		state.Player.Progress = 0.25
		state.Player.IsPlaying = true
		state.Connections["u1"] = "c1"
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, created.Exists)

	got, err := r.GetRoom(ctx, "room-42")
	require.NoError(t, err)
	assert.Equal(t, created.Room, got.Room)
	assert.Equal(t, "u1", got.Room.OwnerId)
	assert.Equal(t, int64(1700000000000), got.Room.CreatedAt)
	assert.Empty(t, got.Room.MessageList)
	assert.NotNil(t, got.Room.MessageList)
	assert.Equal(t, "A video", *got.Room.VideoList[0].Title)
	assert.True(t, got.Player.IsPlaying)
	assert.Equal(t, 0.25, got.Player.Progress)

	assert.Greater(t, s.TTL("room:room-42"), time.Duration(0))
	assert.Greater(t, s.TTL("room:room-42:videolist"), time.Duration(0))
	assert.Equal(t, map[string]string{"u1": "c1"}, got.Connections)
	assert.Greater(t, s.TTL("room:room-42:connections"), time.Duration(0))
}

func TestConnectionsAreReplaced(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.UpdateRoom(ctx, "room-42", func(state *room.State) ([]room.Notification, error) {
		state.Connections["u1"] = "c1"
		state.Connections["u2"] = "c2"
		return nil, nil
	})
	require.NoError(t, err)

	_, err = r.UpdateRoom(ctx, "room-42", func(state *room.State) ([]room.Notification, error) {
		assert.Equal(t, map[string]string{"u1": "c1", "u2": "c2"}, state.Connections)
		state.Connections["u1"] = "c3"
		delete(state.Connections, "u2")
		return nil, nil
	})
	require.NoError(t, err)

	got, err := r.GetRoom(ctx, "room-42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "c3"}, got.Connections)

	_, err = r.UpdateRoom(ctx, "room-42", func(state *room.State) ([]room.Notification, error) {
		delete(state.Connections, "u1")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, s.Exists("room:room-42:connections"))
}

func TestUpdateRoomErrorDiscards(t *testing.T) {
	r, _ := newTestRepo(t)
	boom := errors.New("boom")

	_, err := r.UpdateRoom(context.Background(), "room-42", func(state *room.State) ([]room.Notification, error) {
		state.Room.OwnerId = "u1"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = r.GetRoom(context.Background(), "room-42")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.UpdateRoom(ctx, "room-42", func(state *room.State) ([]room.Notification, error) {
				state.Room.MessageList = append(state.Room.MessageList, domain.MessageData{Message: "hi"})
				return nil, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.GetRoom(ctx, "room-42")
	require.NoError(t, err)
	assert.Len(t, got.Room.MessageList, 8)
}

func TestNotificationsArePublished(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	received := make(chan room.Notification, 4)
	go r.Listen(ctx, func(_ context.Context, n room.Notification) {
		received <- n
	}, func() { close(ready) })

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("subscription not ready")
	}

	_, err := r.UpdateRoom(ctx, "room-42", func(state *room.State) ([]room.Notification, error) {
		return []room.Notification{
			{To: "u1", Message: json.RawMessage(`{"type":"all_room_data"}`)},
			{Except: "u1", Message: json.RawMessage(`{"type":"user_joined"}`)},
		}, nil
	})
	require.NoError(t, err)

	for _, want := range []room.Notification{
		{RoomId: "room-42", To: "u1", Message: json.RawMessage(`{"type":"all_room_data"}`)},
		{RoomId: "room-42", Except: "u1", Message: json.RawMessage(`{"type":"user_joined"}`)},
	} {
		select {
		case n := <-received:
			assert.Equal(t, want.RoomId, n.RoomId)
			assert.Equal(t, want.To, n.To)
			assert.Equal(t, want.Except, n.Except)
			assert.JSONEq(t, string(want.Message), string(n.Message))
		case <-time.After(time.Second):
			t.Fatal("notification not received")
		}
	}
}

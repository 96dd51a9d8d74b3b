package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/internal/repository/room"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotMember        = errors.New("sender is not in the room")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrMessageTooLong   = errors.New("message is too long")
	// ErrConnectionReplaced is returned by Leave for a connection that no
	// longer serves its user.
	ErrConnectionReplaced = errors.New("connection was replaced")
)

const (
	DefaultAuthTokenExp = 14 * 24 * time.Hour
	defaultGuestName    = "Guest"
)

type iRoomRepo interface {
	GetRoom(ctx context.Context, roomId string) (room.State, error)
	UpdateRoom(ctx context.Context, roomId string, fn room.UpdateFunc) (room.State, error)
}

type Config struct {
	UsersLimit    int
	PlaylistLimit int
	MessagesLimit int
	Secret        string
	AuthTokenExp  time.Duration
}

type service struct {
	roomRepo      iRoomRepo
	usersLimit    int
	playlistLimit int
	messagesLimit int
	secret        []byte
	authTokenExp  time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

func NewService(roomRepo iRoomRepo, cfg *Config, logger *slog.Logger) *service {
	authTokenExp := cfg.AuthTokenExp
	if authTokenExp <= 0 {
		authTokenExp = DefaultAuthTokenExp
	}

	return &service{
		roomRepo:      roomRepo,
		usersLimit:    cfg.UsersLimit,
		playlistLimit: cfg.PlaylistLimit,
		messagesLimit: cfg.MessagesLimit,
		secret:        []byte(cfg.Secret),
		authTokenExp:  authTokenExp,
		now:           time.Now,
		logger:        logger,
	}
}

func (s service) nowMillis() int64 {
	return s.now().UnixMilli()
}

func notify(ev event.Event) (room.Notification, error) {
	data, err := event.Encode(ev)
	if err != nil {
		return room.Notification{}, err
	}

	return room.Notification{Message: data}, nil
}

// broadcast builds a notification for every member of the room.
func broadcast(ev event.Event) ([]room.Notification, error) {
	n, err := notify(ev)
	if err != nil {
		return nil, err
	}

	return []room.Notification{n}, nil
}

func broadcastExcept(ev event.Event, userId string) ([]room.Notification, error) {
	n, err := notify(ev)
	if err != nil {
		return nil, err
	}
	n.Except = userId

	return []room.Notification{n}, nil
}

func sendTo(ev event.Event, userId string) (room.Notification, error) {
	n, err := notify(ev)
	if err != nil {
		return room.Notification{}, err
	}
	n.To = userId

	return n, nil
}

// update applies fn to an existing room. The sender must be a member.
func (s service) update(ctx context.Context, roomId, senderId string, fn room.UpdateFunc) (room.State, error) {
	return s.roomRepo.UpdateRoom(ctx, roomId, func(state *room.State) ([]room.Notification, error) {
		if !state.Exists {
			return nil, room.ErrRoomNotFound
		}
		if !state.Room.HasUser(senderId) {
			return nil, ErrNotMember
		}

		return fn(state)
	})
}

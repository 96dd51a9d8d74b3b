package redis

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxRetries = 16
	eventsPattern     = "room:*:events"
)

type repo struct {
	rc         *redis.Client
	roomExp    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// NewRepo stores rooms in rc. Every write pushes the room expiry roomExp
// into the future, so a room outlives its last member by roomExp.
func NewRepo(rc *redis.Client, roomExp time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:         rc,
		roomExp:    roomExp,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}
}

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) getUserListKey(roomId string) string {
	return "room:" + roomId + ":userlist"
}

func (r repo) getMessageListKey(roomId string) string {
	return "room:" + roomId + ":messagelist"
}

func (r repo) getVideoListKey(roomId string) string {
	return "room:" + roomId + ":videolist"
}

func (r repo) getConnectionsKey(roomId string) string {
	return "room:" + roomId + ":connections"
}

func (r repo) getEventsChannel(roomId string) string {
	return "room:" + roomId + ":events"
}

func (r repo) getKeys(roomId string) []string {
	return []string{
		r.getRoomKey(roomId),
		r.getUserListKey(roomId),
		r.getMessageListKey(roomId),
		r.getVideoListKey(roomId),
		r.getConnectionsKey(roomId),
	}
}

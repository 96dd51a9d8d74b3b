package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/syncroom/internal/repository/connection"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

// repo tracks the connections served by this instance, per room.
type repo struct {
	rooms  map[string]map[string]*wsrouter.Conn
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]map[string]*wsrouter.Conn),
		logger: logger,
	}
}

// Add makes conn the connection of userId and returns the connection it
// replaced, if any.
func (r *repo) Add(roomId, userId string, conn *wsrouter.Conn) *wsrouter.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("called", "room_id", roomId, "user_id", userId)
	members, ok := r.rooms[roomId]
	if !ok {
		members = make(map[string]*wsrouter.Conn)
		r.rooms[roomId] = members
	}

	previous := members[userId]
	members[userId] = conn
	return previous
}

// Remove forgets the connection of userId if it is still conn.
func (r *repo) Remove(roomId, userId string, conn *wsrouter.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("called", "room_id", roomId, "user_id", userId)
	members := r.rooms[roomId]
	if current, ok := members[userId]; !ok || current != conn {
		r.logger.Debug("returned", "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(members, userId)
	if len(members) == 0 {
		delete(r.rooms, roomId)
	}

	return nil
}

func (r *repo) Get(roomId, userId string) (*wsrouter.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.rooms[roomId][userId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// List returns the connections of roomId keyed by user id.
func (r *repo) List(roomId string) map[string]*wsrouter.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomId]
	conns := make(map[string]*wsrouter.Conn, len(members))
	for userId, conn := range members {
		conns[userId] = conn
	}

	return conns
}

package room

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/internal/repository/room"
)

const nameMaxLength = 32

type IdentifyParams struct {
	RoomId    string
	Name      string
	AuthToken string
}

// Identify picks the user a connecting client will join as. A valid auth
// token for the room restores the user id it was issued for, even while an
// older connection of that user is still open.
func (s service) Identify(ctx context.Context, params *IdentifyParams) (domain.UserData, error) {
	if len(params.RoomId) < domain.RoomIdMinLength {
		return domain.UserData{}, domain.ErrInvalidRoomId
	}

	userId := ""
	if params.AuthToken != "" {
		id, err := s.parseAuthToken(params.AuthToken, params.RoomId)
		if err != nil {
			s.logger.InfoContext(ctx, "ignoring auth token", "error", err)
		} else {
			userId = id
		}
	}

	if userId == "" {
		userId = uuid.NewString()
	}

	return domain.UserData{
		Id:   userId,
		Name: s.userName(params.Name, userId),
	}, nil
}

func (s service) userName(name, userId string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultGuestName + " " + userId[:4]
	}

	if utf8.RuneCountInString(name) > nameMaxLength {
		name = string([]rune(name)[:nameMaxLength])
	}

	return name
}

type JoinParams struct {
	RoomId       string
	User         domain.UserData
	ConnectionId string
}

// Join adds the user to the room, creating the room with the user as owner
// when it does not exist yet. A user already in the room is taken over by
// the new connection. The joiner receives the full snapshot, every other
// member the new user list.
func (s service) Join(ctx context.Context, params *JoinParams) (domain.RoomData, error) {
	user := params.User
	state, err := s.roomRepo.UpdateRoom(ctx, params.RoomId, func(state *room.State) ([]room.Notification, error) {
		if !state.Exists {
			state.Room.OwnerId = user.Id
			state.Room.CreatedAt = s.nowMillis()
		}

		users := domain.NewUsers(state.Room.UserList, s.usersLimit)
		var userList []domain.UserData
		if _, index, err := users.GetById(user.Id); err == nil {
			s.logger.InfoContext(ctx, "connection replaced", "user_id", user.Id, "previous", state.Connections[user.Id])
			userList = users.AsList()
			userList[index] = user
		} else {
			userList, err = users.Add(user)
			if err != nil {
				return nil, err
			}
		}
		state.Room.UserList = userList
		state.Connections[user.Id] = params.ConnectionId

		authToken, err := s.generateAuthToken(params.RoomId, user.Id)
		if err != nil {
			return nil, err
		}

		snapshot, err := sendTo(event.AllRoomData{
			UserData:  user,
			RoomData:  state.Room,
			AuthToken: authToken,
		}, user.Id)
		if err != nil {
			return nil, err
		}
		notifications := []room.Notification{snapshot}

		// late joiners start where the room is
		if state.Player.IsPlaying {
			n, err := sendTo(event.VideoStarted{VideoProgress: state.Player.Progress}, user.Id)
			if err != nil {
				return nil, err
			}
			notifications = append(notifications, n)
		}
		if state.Player.PlaybackRate != domain.DefaultPlaybackRate {
			n, err := sendTo(event.PlaybackRateChanged{PlaybackRate: state.Player.PlaybackRate}, user.Id)
			if err != nil {
				return nil, err
			}
			notifications = append(notifications, n)
		}

		joined, err := broadcastExcept(event.UserJoined{UserList: userList}, user.Id)
		if err != nil {
			return nil, err
		}

		return append(notifications, joined...), nil
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to join room", "room_id", params.RoomId, "error", err)
		return domain.RoomData{}, err
	}

	return state.Room, nil
}

type LeaveParams struct {
	RoomId       string
	UserId       string
	ConnectionId string
}

// Leave removes the user from the user list unless another connection took
// the user over in the meantime. The room itself is kept until it expires
// so the owner can come back.
func (s service) Leave(ctx context.Context, params *LeaveParams) error {
	_, err := s.update(ctx, params.RoomId, params.UserId, func(state *room.State) ([]room.Notification, error) {
		if current, ok := state.Connections[params.UserId]; ok && current != params.ConnectionId {
			return nil, ErrConnectionReplaced
		}

		userList, err := domain.NewUsers(state.Room.UserList, s.usersLimit).RemoveById(params.UserId)
		if err != nil {
			return nil, err
		}
		state.Room.UserList = userList
		delete(state.Connections, params.UserId)

		if len(userList) == 0 {
			state.Player.IsPlaying = false
		}

		return broadcast(event.UserLeaving{UserList: userList})
	})
	if err != nil {
		s.logger.InfoContext(ctx, "failed to leave room", "room_id", params.RoomId, "user_id", params.UserId, "error", err)
		return err
	}

	return nil
}

type SendMessageParams struct {
	RoomId   string
	SenderId string
	Message  string
}

func (s service) SendMessage(ctx context.Context, params *SendMessageParams) error {
	text := strings.TrimSpace(params.Message)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return ErrEmptyMessage
	case n > domain.MessageMaxLength:
		return ErrMessageTooLong
	}

	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		sender, _, err := domain.NewUsers(state.Room.UserList, 0).GetById(params.SenderId)
		if err != nil {
			return nil, err
		}

		state.Room.MessageList = domain.NewMessages(state.Room.MessageList, s.messagesLimit).Append(domain.MessageData{
			Id:        uuid.NewString(),
			User:      sender,
			Message:   text,
			Timestamp: s.nowMillis(),
		})

		return broadcast(event.ChatMessages{MessageList: state.Room.MessageList})
	})

	return err
}

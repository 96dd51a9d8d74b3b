package domain

import (
	"errors"
	"slices"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUsersLimitReached = errors.New("users limit reached")
)

type Users struct {
	list  []UserData
	limit int
}

func NewUsers(list []UserData, limit int) Users {
	return Users{
		list:  list,
		limit: limit,
	}
}

func (u Users) AsList() []UserData {
	return cloneList(u.list)
}

func (u Users) Length() int {
	return len(u.list)
}

func (u Users) GetById(id string) (UserData, int, error) {
	for index, user := range u.list {
		if user.Id == id {
			return user, index, nil
		}
	}

	return UserData{}, 0, ErrUserNotFound
}

func (u Users) Add(user UserData) ([]UserData, error) {
	if _, _, err := u.GetById(user.Id); err == nil {
		return nil, ErrUserAlreadyExists
	}

	if u.limit > 0 && u.Length() >= u.limit {
		return nil, ErrUsersLimitReached
	}

	return append(u.AsList(), user), nil
}

func (u Users) RemoveById(id string) ([]UserData, error) {
	_, index, err := u.GetById(id)
	if err != nil {
		return nil, err
	}

	return slices.Delete(u.AsList(), index, index+1), nil
}

// Messages is the append-only chat history. Only the newest limit entries
// are kept.
type Messages struct {
	list  []MessageData
	limit int
}

func NewMessages(list []MessageData, limit int) Messages {
	return Messages{
		list:  list,
		limit: limit,
	}
}

func (m Messages) Append(message MessageData) []MessageData {
	list := append(cloneList(m.list), message)
	if m.limit > 0 && len(list) > m.limit {
		list = list[len(list)-m.limit:]
	}

	return list
}

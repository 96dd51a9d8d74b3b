package room

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrConflict     = errors.New("room was modified concurrently")
)

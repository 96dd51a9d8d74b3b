package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedHost     = errors.New("unsupported video host")
	ErrInvalidId           = errors.New("unsupported video host or incorrect id")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("no videos found")
	ErrConfiguration       = errors.New("unknown server error")
	ErrInvalidRoomId       = errors.New("invalid room id")
)

// UpstreamError carries the status and message returned by a metadata
// lookup. It matches ErrNotFound for 404 responses and
// ErrUpstreamUnavailable otherwise.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream responded with status %d", e.Status)
	}

	return fmt.Sprintf("upstream responded with status %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	if e.Status == 404 {
		return target == ErrNotFound
	}

	return target == ErrUpstreamUnavailable
}

// ChannelError is an error pushed by the server over the event channel.
type ChannelError struct {
	Message string
}

func (e *ChannelError) Error() string {
	return e.Message
}

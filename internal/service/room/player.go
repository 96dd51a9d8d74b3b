package room

import (
	"context"
	"errors"

	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/internal/repository/room"
)

type PlayerParams struct {
	RoomId   string
	SenderId string
}

// StartVideo starts playback for everyone, including the sender, at the
// last progress the owner reported.
func (s service) StartVideo(ctx context.Context, params *PlayerParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		state.Player.IsPlaying = true

		return broadcast(event.VideoStarted{VideoProgress: state.Player.Progress})
	})

	return err
}

func (s service) StopVideo(ctx context.Context, params *PlayerParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		state.Player.IsPlaying = false

		return broadcast(event.VideoStopped{})
	})

	return err
}

type ReportProgressParams struct {
	RoomId        string
	SenderId      string
	VideoProgress float64
}

// ReportProgress stores the owner's progress. Reports from anyone else are
// dropped.
func (s service) ReportProgress(ctx context.Context, params *ReportProgressParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		if state.Room.OwnerId != params.SenderId {
			return nil, ErrPermissionDenied
		}

		state.Player.Progress = domain.ClampProgress(params.VideoProgress)
		return nil, nil
	})
	if errors.Is(err, ErrPermissionDenied) {
		s.logger.DebugContext(ctx, "progress from non owner dropped", "sender_id", params.SenderId)
		return nil
	}

	return err
}

type ChangePlaybackRateParams struct {
	RoomId       string
	SenderId     string
	PlaybackRate float64
}

// ChangePlaybackRate relays the owner's rate to the other members.
func (s service) ChangePlaybackRate(ctx context.Context, params *ChangePlaybackRateParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		if state.Room.OwnerId != params.SenderId {
			return nil, ErrPermissionDenied
		}

		state.Player.PlaybackRate = params.PlaybackRate
		return broadcastExcept(event.PlaybackRateChanged{PlaybackRate: params.PlaybackRate}, params.SenderId)
	})
	if errors.Is(err, ErrPermissionDenied) {
		s.logger.DebugContext(ctx, "playback rate from non owner dropped", "sender_id", params.SenderId)
		return nil
	}

	return err
}

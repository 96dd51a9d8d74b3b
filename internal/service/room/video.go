package room

import (
	"context"

	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/internal/repository/room"
)

type VideoParams struct {
	RoomId   string
	SenderId string
	Video    domain.VideoData
}

type ReorderVideoParams struct {
	RoomId      string
	SenderId    string
	Video       domain.VideoData
	TargetIndex int
}

// setVideoList stores list and rewinds the player when the now playing
// entry changed.
func setVideoList(state *room.State, list []domain.VideoData) {
	before, hadVideo := state.Room.NowPlaying()
	state.Room.VideoList = list
	after, hasVideo := state.Room.NowPlaying()

	if hadVideo != hasVideo || (hasVideo && !before.SameVideo(after)) {
		state.Player.Progress = 0
		if !hasVideo {
			state.Player.IsPlaying = false
		}
	}
}

func (s service) playlist(state *room.State) domain.Playlist {
	return domain.NewPlaylist(state.Room.VideoList, s.playlistLimit)
}

func (s service) AddVideo(ctx context.Context, params *VideoParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		list, err := s.playlist(state).Add(params.Video)
		if err != nil {
			return nil, err
		}
		setVideoList(state, list)

		return broadcast(event.VideoAdded{VideoList: list})
	})

	return err
}

func (s service) RemoveVideo(ctx context.Context, params *VideoParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		list, err := s.playlist(state).Remove(params.Video)
		if err != nil {
			return nil, err
		}
		setVideoList(state, list)

		return broadcast(event.VideoRemoved{VideoList: list})
	})

	return err
}

// ChangeVideo makes params.Video the now playing entry.
func (s service) ChangeVideo(ctx context.Context, params *VideoParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		list, err := s.playlist(state).Change(params.Video)
		if err != nil {
			return nil, err
		}
		setVideoList(state, list)

		return broadcast(event.VideoChanged{VideoList: list})
	})

	return err
}

// ReorderVideo moves params.Video to params.TargetIndex. An out of range
// target is broadcast with the unchanged list.
func (s service) ReorderVideo(ctx context.Context, params *ReorderVideoParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		list, err := s.playlist(state).Reorder(params.Video, params.TargetIndex)
		if err != nil {
			return nil, err
		}
		setVideoList(state, list)

		return broadcast(event.VideoReordered{VideoList: list})
	})

	return err
}

// EndVideo advances the playlist if params.Video is still the now playing
// entry. Later reports of the same end are dropped.
func (s service) EndVideo(ctx context.Context, params *VideoParams) error {
	_, err := s.update(ctx, params.RoomId, params.SenderId, func(state *room.State) ([]room.Notification, error) {
		list, advanced := s.playlist(state).Ended(params.Video)
		if !advanced {
			s.logger.DebugContext(ctx, "video already ended", "video_id", params.Video.Id)
			return nil, nil
		}
		setVideoList(state, list)

		return broadcast(event.VideoEnded{VideoList: list})
	})

	return err
}

package store

import (
	"slices"

	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
)

// Apply returns the room snapshot that results from ev. Structural events
// replace the affected list wholesale, everything else returns snapshot
// unchanged. A nil snapshot stays nil until a full snapshot arrives. The
// input snapshot is never modified.
func Apply(snapshot *domain.RoomData, ev event.Inbound) *domain.RoomData {
	r := reducer{state: State{RoomData: snapshot}}
	if snapshot != nil {
		r.state.Status = StatusJoined
	}

	ev.Accept(&r)
	return r.state.RoomData
}

// Reduce applies ev to the whole client state. Events other than the full
// snapshot and server errors are discarded while no snapshot is held.
func Reduce(state State, ev event.Inbound) State {
	r := reducer{state: state}
	ev.Accept(&r)
	return r.state
}

type reducer struct {
	state State
}

var _ event.InboundVisitor = (*reducer)(nil)

func (r *reducer) joined() bool {
	return r.state.Status == StatusJoined && r.state.RoomData != nil
}

func (r *reducer) replace(update func(room *domain.RoomData)) {
	if !r.joined() {
		return
	}

	room := *r.state.RoomData
	update(&room)
	r.state.RoomData = &room
}

func (r *reducer) replaceVideoList(list []domain.VideoData) {
	r.replace(func(room *domain.RoomData) {
		room.VideoList = cloneOrEmpty(list)
	})
}

func (r *reducer) VisitAllRoomData(e event.AllRoomData) {
	user := e.UserData
	r.state.UserData = &user
	r.state.RoomData = e.RoomData.Clone()
	r.state.Status = StatusJoined
}

func (r *reducer) VisitUserJoined(e event.UserJoined) {
	r.replace(func(room *domain.RoomData) {
		room.UserList = cloneOrEmpty(e.UserList)
	})
}

func (r *reducer) VisitUserLeaving(e event.UserLeaving) {
	r.replace(func(room *domain.RoomData) {
		if e.UserList != nil {
			room.UserList = cloneOrEmpty(e.UserList)
			return
		}

		room.UserList = slices.DeleteFunc(slices.Clone(room.UserList), func(u domain.UserData) bool {
			return u.Id == e.UserId
		})
	})
}

func (r *reducer) VisitChatMessages(e event.ChatMessages) {
	r.replace(func(room *domain.RoomData) {
		room.MessageList = cloneOrEmpty(e.MessageList)
	})
}

func (r *reducer) VisitVideoAdded(e event.VideoAdded)         { r.replaceVideoList(e.VideoList) }
func (r *reducer) VisitVideoRemoved(e event.VideoRemoved)     { r.replaceVideoList(e.VideoList) }
func (r *reducer) VisitVideoChanged(e event.VideoChanged)     { r.replaceVideoList(e.VideoList) }
func (r *reducer) VisitVideoReordered(e event.VideoReordered) { r.replaceVideoList(e.VideoList) }
func (r *reducer) VisitVideoEnded(e event.VideoEnded)         { r.replaceVideoList(e.VideoList) }

// VisitVideoStarted leaves the playing flag alone, the playback controller
// flips it once the player has been seeked.
func (r *reducer) VisitVideoStarted(event.VideoStarted) {}

func (r *reducer) VisitVideoStopped(event.VideoStopped) {
	if !r.joined() {
		return
	}

	r.state.Local.VideoPlaying = false
}

func (r *reducer) VisitProgressReported(e event.ProgressReported) {
	if !r.joined() {
		return
	}

	r.state.Local.AuthorityProgress = domain.ClampProgress(e.VideoProgress)
}

func (r *reducer) VisitPlaybackRateChanged(e event.PlaybackRateChanged) {
	if !r.joined() || e.PlaybackRate <= 0 {
		return
	}

	r.state.Local.VideoPlaybackRate = e.PlaybackRate
}

func (r *reducer) VisitServerError(e event.ServerError) {
	r.state.Local.Error = e.Message
	r.state.Local.SearchResults = nil
}

func cloneOrEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}

	return slices.Clone(list)
}

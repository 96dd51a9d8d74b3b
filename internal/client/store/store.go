// Package store holds the room state as seen by one client. Every inbound
// event produces a new State, published snapshots are never modified so
// readers may keep them between renders.
package store

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/event"
)

type Status int

const (
	StatusUninitialized Status = iota
	StatusJoined
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusJoined:
		return "joined"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// LocalState never round-trips through the channel except as the payload of
// playback events.
type LocalState struct {
	VideoPlaying      bool
	VideoPlaybackRate float64
	AuthorityProgress float64
	SearchResults     []domain.VideoData
	Fetching          bool
	Error             string
}

type State struct {
	Status   Status
	UserData *domain.UserData
	RoomData *domain.RoomData
	Local    LocalState
}

func (s State) IsAuthority() bool {
	return domain.IsAuthority(s.UserData, s.RoomData)
}

func initialState() State {
	return State{
		Status: StatusUninitialized,
		Local: LocalState{
			VideoPlaybackRate: domain.DefaultPlaybackRate,
		},
	}
}

type Listener func(State)

type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextId    int
	// pending holds states not yet handed to listeners, oldest first. At
	// most one goroutine drains it at a time.
	pending    []State
	delivering bool
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Store {
	return &Store{
		state:     initialState(),
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe registers l to be called with every new state. Listeners see
// states in the order they were produced and are called in subscription
// order. A listener may update the store, the resulting state is delivered
// after the current one.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextId++
	id := s.nextId
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch applies one inbound event.
func (s *Store) Dispatch(ev event.Inbound) State {
	return s.update(func(state State) State {
		if state.Status != StatusJoined && ev.EventName() != event.NameAllRoomData && ev.EventName() != event.NameError {
			s.logger.Debug("event discarded before snapshot", "event", ev.EventName(), "status", state.Status)
			return state
		}

		return Reduce(state, ev)
	})
}

func (s *Store) SetVideoPlaying(playing bool) State {
	return s.update(func(state State) State {
		state.Local.VideoPlaying = playing
		return state
	})
}

func (s *Store) SetFetching(fetching bool) State {
	return s.update(func(state State) State {
		state.Local.Fetching = fetching
		return state
	})
}

func (s *Store) SetSearchResults(results []domain.VideoData) State {
	return s.update(func(state State) State {
		state.Local.SearchResults = results
		return state
	})
}

// SetError shows message in the transient banner and drops pending search
// results.
func (s *Store) SetError(message string) State {
	return s.update(func(state State) State {
		state.Local.Error = message
		state.Local.SearchResults = nil
		return state
	})
}

func (s *Store) DismissError() State {
	return s.update(func(state State) State {
		state.Local.Error = ""
		return state
	})
}

// MarkDisconnected keeps the last snapshot for display. The next full
// snapshot moves the store back to joined.
func (s *Store) MarkDisconnected() State {
	return s.update(func(state State) State {
		if state.Status == StatusJoined {
			state.Status = StatusDisconnected
		}
		state.Local.VideoPlaying = false
		return state
	})
}

func (s *Store) update(fn func(State) State) State {
	s.mu.Lock()
	s.state = fn(s.state)
	state := s.state
	s.pending = append(s.pending, state)
	if s.delivering {
		s.mu.Unlock()
		return state
	}
	s.delivering = true
	s.mu.Unlock()

	s.deliver()

	return state
}

func (s *Store) deliver() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		listeners := s.sortedListeners()
		s.mu.Unlock()

		for _, l := range listeners {
			l(next)
		}
	}
}

func (s *Store) sortedListeners() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	return listeners
}

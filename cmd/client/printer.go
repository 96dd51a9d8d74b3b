package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/sharetube/syncroom/internal/client/store"
)

// printer prints what changed between two consecutive states.
type printer struct {
	mu       sync.Mutex
	status   store.Status
	users    int
	playing  string
	messages int
	errorMsg string
	running  bool
}

func newPrinter() *printer {
	return &printer{}
}

func (p *printer) print(state store.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state.Status != p.status {
		p.status = state.Status
		fmt.Println("*", state.Status)
		if state.Status == store.StatusDisconnected {
			fmt.Println("* /reconnect to rejoin")
		}
	}

	if state.Local.Error != "" && state.Local.Error != p.errorMsg {
		fmt.Println("! ", state.Local.Error)
	}
	p.errorMsg = state.Local.Error

	if state.Local.VideoPlaying != p.running {
		p.running = state.Local.VideoPlaying
		if p.running {
			fmt.Println("* playing")
		} else {
			fmt.Println("* stopped")
		}
	}

	room := state.RoomData
	if room == nil {
		return
	}

	if len(room.UserList) != p.users {
		p.users = len(room.UserList)
		fmt.Printf("* %d in the room\n", p.users)
	}

	nowPlaying := ""
	if video, ok := room.NowPlaying(); ok {
		nowPlaying = video.URL
		if video.Title != nil {
			nowPlaying = *video.Title
		}
	}
	if nowPlaying != p.playing {
		p.playing = nowPlaying
		fmt.Println("* now playing:", nowPlaying)
	}

	if len(room.MessageList) < p.messages {
		p.messages = 0
	}
	for _, m := range room.MessageList[p.messages:] {
		fmt.Printf("[%s] %s: %s\n", time.UnixMilli(m.Timestamp).Format(time.TimeOnly), m.User.Name, m.Message)
	}
	p.messages = len(room.MessageList)
}

func printRoom(state store.State) {
	if state.RoomData == nil || state.UserData == nil {
		fmt.Println("not joined")
		return
	}

	room := state.RoomData
	fmt.Println("room", room.Id, "owner", room.OwnerId, "you", state.UserData.Id)
	for _, u := range room.UserList {
		fmt.Println("  user", u.Id, u.Name)
	}
	for i, v := range room.VideoList {
		title := v.URL
		if v.Title != nil {
			title = *v.Title
		}
		fmt.Printf("  %d %s %s\n", i, v.Host, title)
	}
}

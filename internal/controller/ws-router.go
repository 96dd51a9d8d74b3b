package controller

import (
	"github.com/sharetube/syncroom/internal/event"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw())
	mux.OnError(c.writeError)

	// chat
	wsrouter.Handle(mux, string(event.NameNewChatMessage), c.handleSendMessage)

	// playlist
	wsrouter.Handle(mux, string(event.NameNewVideoAdded), c.handleAddVideo)
	wsrouter.Handle(mux, string(event.NameVideoRemoved), c.handleRemoveVideo)
	wsrouter.Handle(mux, string(event.NameChangeVideo), c.handleChangeVideo)
	wsrouter.Handle(mux, string(event.NameReorderVideo), c.handleReorderVideo)
	wsrouter.Handle(mux, string(event.NameVideoEnded), c.handleEndVideo)

	// player
	wsrouter.Handle(mux, string(event.NameStartVideo), c.handleStartVideo)
	wsrouter.Handle(mux, string(event.NameStopVideo), c.handleStopVideo)
	wsrouter.Handle(mux, string(event.NameVideoProgress), c.handleReportProgress)
	wsrouter.Handle(mux, string(event.NamePlaybackRateChange), c.handleChangePlaybackRate)

	return mux
}

package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/hostapi"
	"github.com/sharetube/syncroom/pkg/validator"
	"github.com/sharetube/syncroom/pkg/wsrouter"
)

type iRoomService interface {
	Identify(context.Context, *room.IdentifyParams) (domain.UserData, error)
	Join(context.Context, *room.JoinParams) (domain.RoomData, error)
	Leave(context.Context, *room.LeaveParams) error
	SendMessage(context.Context, *room.SendMessageParams) error
	AddVideo(context.Context, *room.VideoParams) error
	RemoveVideo(context.Context, *room.VideoParams) error
	ChangeVideo(context.Context, *room.VideoParams) error
	ReorderVideo(context.Context, *room.ReorderVideoParams) error
	EndVideo(context.Context, *room.VideoParams) error
	StartVideo(context.Context, *room.PlayerParams) error
	StopVideo(context.Context, *room.PlayerParams) error
	ReportProgress(context.Context, *room.ReportProgressParams) error
	ChangePlaybackRate(context.Context, *room.ChangePlaybackRateParams) error
}

type iConnRepo interface {
	Add(roomId, userId string, conn *wsrouter.Conn) *wsrouter.Conn
	Remove(roomId, userId string, conn *wsrouter.Conn) error
	Get(roomId, userId string) (*wsrouter.Conn, error)
	List(roomId string) map[string]*wsrouter.Conn
}

type iHostAPI interface {
	Lookup(ctx context.Context, host, id string) ([]hostapi.Video, error)
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	hostAPI     iHostAPI
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsRouter    *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, connRepo iConnRepo, hostAPI iHostAPI, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		connRepo:    connRepo,
		hostAPI:     hostAPI,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}

// SetPongWait changes how long a websocket may stay silent before it is
// dropped and its user leaves.
func (c controller) SetPongWait(d time.Duration) {
	c.wsRouter.SetPongWait(d)
}

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/syncroom/internal/controller"
	"github.com/sharetube/syncroom/internal/repository/connection/inmemory"
	roomRedis "github.com/sharetube/syncroom/internal/repository/room/redis"
	"github.com/sharetube/syncroom/internal/service/room"
	"github.com/sharetube/syncroom/pkg/ctxlogger"
	"github.com/sharetube/syncroom/pkg/hostapi"
	"github.com/sharetube/syncroom/pkg/redisclient"
)

type AppConfig struct {
	Secret             string        `json:"-"`
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	LogLevel           string        `json:"log_level"`
	LogPath            string        `json:"log_path"`
	UsersLimit         int           `json:"users_limit"`
	PlaylistLimit      int           `json:"playlist_limit"`
	MessagesLimit      int           `json:"messages_limit"`
	RoomExp            time.Duration `json:"room_exp"`
	AuthTokenExp       time.Duration `json:"auth_token_exp"`
	LookupTimeout      time.Duration `json:"lookup_timeout"`
	PongWait           time.Duration `json:"pong_wait"`
	YoutubeAPIKey      string        `json:"-"`
	TwitchClientId     string        `json:"-"`
	TwitchClientSecret string        `json:"-"`
	VimeoAccessToken   string        `json:"-"`
	RedisPort          int           `json:"redis_port"`
	RedisHost          string        `json:"redis_host"`
	RedisPassword      string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must be set")
	}
	if cfg.UsersLimit < 1 {
		return errors.New("users limit must be greater than 0")
	}
	if cfg.PlaylistLimit < 1 {
		return errors.New("playlist limit must be greater than 0")
	}
	if cfg.MessagesLimit < 1 {
		return errors.New("messages limit must be greater than 0")
	}
	if cfg.RoomExp <= 0 {
		return errors.New("room expiration must be positive")
	}
	return nil
}

func newLogger(cfg *AppConfig) (*slog.Logger, io.Closer, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), closer, nil
}

// newHandler wires storage, service and transport. Notifications are fanned
// out to this instance's connections until ctx is done.
func newHandler(ctx context.Context, cfg *AppConfig, rc *redis.Client, logger *slog.Logger, onReady func()) http.Handler {
	roomRepo := roomRedis.NewRepo(rc, cfg.RoomExp, logger)
	connectionRepo := inmemory.NewRepo(logger)
	roomService := room.NewService(roomRepo, &room.Config{
		UsersLimit:    cfg.UsersLimit,
		PlaylistLimit: cfg.PlaylistLimit,
		MessagesLimit: cfg.MessagesLimit,
		Secret:        cfg.Secret,
		AuthTokenExp:  cfg.AuthTokenExp,
	}, logger)
	hostAPI := hostapi.New(&hostapi.Config{
		YoutubeAPIKey:      cfg.YoutubeAPIKey,
		TwitchClientId:     cfg.TwitchClientId,
		TwitchClientSecret: cfg.TwitchClientSecret,
		VimeoAccessToken:   cfg.VimeoAccessToken,
		Timeout:            cfg.LookupTimeout,
	})
	controller := controller.NewController(roomService, connectionRepo, hostAPI, logger)
	if cfg.PongWait > 0 {
		controller.SetPongWait(cfg.PongWait)
	}

	go roomRepo.Listen(ctx, controller.Deliver, onReady)

	return controller.GetMux()
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: newHandler(serverCtx, cfg, rc, logger, nil),
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/syncroom/internal/client"
	"github.com/sharetube/syncroom/internal/client/channel"
	"github.com/sharetube/syncroom/internal/client/playback"
	"github.com/sharetube/syncroom/internal/domain"
	"github.com/sharetube/syncroom/internal/resolver"
	"github.com/sharetube/syncroom/pkg/ctxlogger"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	serverURL = configVar[string]{
		envKey:       "SYNCROOM_SERVER_URL",
		flagKey:      "server-url",
		defaultValue: "http://localhost:80",
		usage:        "Server base url",
	}
	roomId = configVar[string]{
		envKey:  "SYNCROOM_ROOM",
		flagKey: "room",
		usage:   "Room id to join",
	}
	name = configVar[string]{
		envKey:  "SYNCROOM_NAME",
		flagKey: "name",
		usage:   "Display name",
	}
	authToken = configVar[string]{
		envKey:  "SYNCROOM_AUTH_TOKEN",
		flagKey: "auth-token",
		usage:   "Auth token of a previous session",
	}
	logLevel = configVar[string]{
		envKey:       "SYNCROOM_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "WARN",
		usage:        "Logging level",
	}
	lookupTimeout = configVar[time.Duration]{
		envKey:       "SYNCROOM_LOOKUP_TIMEOUT",
		flagKey:      "lookup-timeout",
		defaultValue: resolver.DefaultTimeout,
		usage:        "Timeout of video searches",
	}
	settleDelay = configVar[time.Duration]{
		envKey:       "SYNCROOM_SETTLE_DELAY",
		flagKey:      "settle-delay",
		defaultValue: playback.DefaultSettleDelay,
		usage:        "Delay between seeking and playing on a remote start",
	}
	pongWait = configVar[time.Duration]{
		envKey:       "SYNCROOM_PONG_WAIT",
		flagKey:      "pong-wait",
		defaultValue: channel.DefaultPongWait,
		usage:        "How long the server may stay silent before the connection is considered lost",
	}
)

func (v configVar[T]) bind() {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

type config struct {
	ServerURL     string
	RoomId        string
	Name          string
	AuthToken     string
	LogLevel      string
	LookupTimeout time.Duration
	SettleDelay   time.Duration
	PongWait      time.Duration
}

func loadConfig() *config {
	for _, v := range []configVar[string]{serverURL, roomId, name, authToken, logLevel} {
		pflag.String(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	for _, v := range []configVar[time.Duration]{lookupTimeout, settleDelay, pongWait} {
		pflag.Duration(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &config{
		ServerURL:     strings.TrimSuffix(viper.GetString(serverURL.flagKey), "/"),
		RoomId:        viper.GetString(roomId.flagKey),
		Name:          viper.GetString(name.flagKey),
		AuthToken:     viper.GetString(authToken.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		LookupTimeout: viper.GetDuration(lookupTimeout.flagKey),
		SettleDelay:   viper.GetDuration(settleDelay.flagKey),
		PongWait:      viper.GetDuration(pongWait.flagKey),
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelWarn
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, err
	}

	return slog.New(ctxlogger.ContextHandler{
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}),
	}), nil
}

func wsURL(serverURL string) string {
	switch {
	case strings.HasPrefix(serverURL, "https://"):
		return "wss://" + strings.TrimPrefix(serverURL, "https://")
	case strings.HasPrefix(serverURL, "http://"):
		return "ws://" + strings.TrimPrefix(serverURL, "http://")
	default:
		return serverURL
	}
}

const help = `commands:
  /add <url>            search and add the first result
  /remove <n>           remove playlist entry n
  /play <n>             play playlist entry n now
  /move <n> <target>    move playlist entry n to target
  /start /stop          start or stop playback for everyone
  /ended                report the end of the current video
  /rate <r>             change the playback rate (owner only)
  /clear                drop pending search results
  /dismiss              dismiss the error banner
  /reconnect            rejoin after a lost connection
  /state                print the room
  /quit
anything else is sent as a chat message`

func main() {
	cfg := loadConfig()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := client.Join(ctx, &client.Config{
		Channel: channel.Config{
			URL:       wsURL(cfg.ServerURL) + "/ws/rooms",
			Name:      cfg.Name,
			AuthToken: cfg.AuthToken,
			PongWait:  cfg.PongWait,
		},
		Resolver: resolver.Config{
			BaseURL: cfg.ServerURL,
			Timeout: cfg.LookupTimeout,
		},
		Playback: playback.Config{SettleDelay: cfg.SettleDelay},
	}, cfg.RoomId, nil, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	unsubscribe := session.Subscribe(newPrinter().print)
	defer unsubscribe()

	fmt.Println(help)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := run(ctx, session, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errQuit) {
					return
				}
				fmt.Println("error:", err)
			}
		}
	}
}

var errQuit = errors.New("quit")

func entry(session *client.Session, arg string) (domain.VideoData, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return domain.VideoData{}, fmt.Errorf("invalid index %q", arg)
	}

	state := session.State()
	if state.RoomData == nil || index < 0 || index >= len(state.RoomData.VideoList) {
		return domain.VideoData{}, fmt.Errorf("no playlist entry %d", index)
	}

	return state.RoomData.VideoList[index], nil
}

func run(ctx context.Context, session *client.Session, line string) error {
	if line == "" {
		return nil
	}

	command, rest, _ := strings.Cut(line, " ")
	args := strings.Fields(rest)
	switch command {
	case "/quit":
		return errQuit
	case "/help":
		fmt.Println(help)
		return nil
	case "/state":
		printRoom(session.State())
		return nil
	case "/clear":
		session.ClearSearchResults()
		return nil
	case "/dismiss":
		session.DismissError()
		return nil
	case "/reconnect":
		return session.Reconnect(ctx)
	case "/add":
		if len(args) != 1 {
			return errors.New("usage: /add <url>")
		}
		videos, err := session.Search(ctx, args[0])
		if err != nil {
			return err
		}
		return session.Playlist().Add(videos[0])
	case "/remove", "/play":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <n>", command)
		}
		video, err := entry(session, args[0])
		if err != nil {
			return err
		}
		if command == "/remove" {
			return session.Playlist().Remove(video)
		}
		return session.Playlist().Change(video)
	case "/move":
		if len(args) != 2 {
			return errors.New("usage: /move <n> <target>")
		}
		video, err := entry(session, args[0])
		if err != nil {
			return err
		}
		target, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid target %q", args[1])
		}
		return session.Playlist().Reorder(video, target)
	case "/start":
		return session.Playback().OnPlay()
	case "/stop":
		return session.Playback().OnPause()
	case "/ended":
		return session.Playback().OnEnded()
	case "/rate":
		if len(args) != 1 {
			return errors.New("usage: /rate <r>")
		}
		rate, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid rate %q", args[0])
		}
		return session.Playback().OnPlaybackRateChange(rate)
	default:
		return session.Playlist().SendMessage(line)
	}
}

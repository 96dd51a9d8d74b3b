package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/syncroom/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	secret = configVar[string]{
		envKey:  "SERVER_SECRET",
		flagKey: "secret",
		usage:   "Secret auth tokens are signed with",
	}
	logPath = configVar[string]{
		envKey:  "SERVER_LOG_PATH",
		flagKey: "log-path",
		usage:   "Log file path, logs go to stdout only when empty",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	usersLimit = configVar[int]{
		envKey:       "SERVER_USERS_LIMIT",
		flagKey:      "users-limit",
		defaultValue: 9,
		usage:        "Maximum number of users in the room",
	}
	playlistLimit = configVar[int]{
		envKey:       "SERVER_PLAYLIST_LIMIT",
		flagKey:      "playlist-limit",
		defaultValue: 25,
		usage:        "Maximum number of videos in the playlist",
	}
	messagesLimit = configVar[int]{
		envKey:       "SERVER_MESSAGES_LIMIT",
		flagKey:      "messages-limit",
		defaultValue: 100,
		usage:        "Number of chat messages kept per room",
	}
	roomExp = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_EXP",
		flagKey:      "room-exp",
		defaultValue: 24 * time.Hour,
		usage:        "How long a room is kept after its last change",
	}
	authTokenExp = configVar[time.Duration]{
		envKey:       "SERVER_AUTH_TOKEN_EXP",
		flagKey:      "auth-token-exp",
		defaultValue: 14 * 24 * time.Hour,
		usage:        "Auth token lifetime",
	}
	lookupTimeout = configVar[time.Duration]{
		envKey:       "SERVER_LOOKUP_TIMEOUT",
		flagKey:      "lookup-timeout",
		defaultValue: 10 * time.Second,
		usage:        "Timeout of video metadata lookups",
	}
	pongWait = configVar[time.Duration]{
		envKey:       "SERVER_PONG_WAIT",
		flagKey:      "pong-wait",
		defaultValue: 60 * time.Second,
		usage:        "How long a websocket may stay silent before its user leaves",
	}
	youtubeAPIKey = configVar[string]{
		envKey:  "YOUTUBE_API_KEY",
		flagKey: "youtube-api-key",
		usage:   "YouTube Data API key",
	}
	twitchClientId = configVar[string]{
		envKey:  "TWITCH_CLIENT_ID",
		flagKey: "twitch-client-id",
		usage:   "Twitch client id",
	}
	twitchClientSecret = configVar[string]{
		envKey:  "TWITCH_CLIENT_SECRET",
		flagKey: "twitch-client-secret",
		usage:   "Twitch client secret",
	}
	vimeoAccessToken = configVar[string]{
		envKey:  "VIMEO_ACCESS_TOKEN",
		flagKey: "vimeo-access-token",
		usage:   "Vimeo access token",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPassword = configVar[string]{
		envKey:  "REDIS_PASSWORD",
		flagKey: "redis-password",
		usage:   "Redis password",
	}
)

func (v configVar[T]) bind() {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	for _, v := range []configVar[string]{secret, logPath, host, logLevel, youtubeAPIKey, twitchClientId, twitchClientSecret, vimeoAccessToken, redisHost, redisPassword} {
		pflag.String(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	for _, v := range []configVar[int]{port, usersLimit, playlistLimit, messagesLimit, redisPort} {
		pflag.Int(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	for _, v := range []configVar[time.Duration]{roomExp, authTokenExp, lookupTimeout, pongWait} {
		pflag.Duration(v.flagKey, v.defaultValue, v.usage)
		v.bind()
	}
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	return &app.AppConfig{
		Secret:             viper.GetString(secret.flagKey),
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		LogPath:            viper.GetString(logPath.flagKey),
		UsersLimit:         viper.GetInt(usersLimit.flagKey),
		PlaylistLimit:      viper.GetInt(playlistLimit.flagKey),
		MessagesLimit:      viper.GetInt(messagesLimit.flagKey),
		RoomExp:            viper.GetDuration(roomExp.flagKey),
		AuthTokenExp:       viper.GetDuration(authTokenExp.flagKey),
		LookupTimeout:      viper.GetDuration(lookupTimeout.flagKey),
		PongWait:           viper.GetDuration(pongWait.flagKey),
		YoutubeAPIKey:      viper.GetString(youtubeAPIKey.flagKey),
		TwitchClientId:     viper.GetString(twitchClientId.flagKey),
		TwitchClientSecret: viper.GetString(twitchClientSecret.flagKey),
		VimeoAccessToken:   viper.GetString(vimeoAccessToken.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}

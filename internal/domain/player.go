package domain

const DefaultPlaybackRate = 1.0

// Player is the playback state the broker keeps per room. Progress is the
// last fraction reported by the owner and is used to align late joiners.
type Player struct {
	IsPlaying    bool    `json:"is_playing"`
	Progress     float64 `json:"progress"`
	PlaybackRate float64 `json:"playback_rate"`
}

func NewPlayer() Player {
	return Player{
		IsPlaying:    false,
		Progress:     0,
		PlaybackRate: DefaultPlaybackRate,
	}
}

// ClampProgress keeps a progress fraction inside [0, 1].
func ClampProgress(progress float64) float64 {
	switch {
	case progress < 0:
		return 0
	case progress > 1:
		return 1
	default:
		return progress
	}
}
